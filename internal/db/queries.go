package db

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type PlayerRating struct {
	Auth      string
	Name      string
	Rating    int64
	Ranked    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

const upsertPlayerRating = `
INSERT INTO player_ratings (auth, name, rating, ranked, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (auth) DO UPDATE SET
    name = excluded.name,
    rating = excluded.rating,
    ranked = excluded.ranked,
    updated_at = excluded.updated_at
`

type UpsertPlayerRatingParams struct {
	Auth      string
	Name      string
	Rating    int64
	Ranked    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) UpsertPlayerRating(ctx context.Context, arg UpsertPlayerRatingParams) error {
	_, err := q.db.ExecContext(ctx, upsertPlayerRating,
		arg.Auth,
		arg.Name,
		arg.Rating,
		arg.Ranked,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getPlayerRating = `
SELECT auth, name, rating, ranked, created_at, updated_at
FROM player_ratings
WHERE auth = ?
`

func (q *Queries) GetPlayerRating(ctx context.Context, auth string) (PlayerRating, error) {
	row := q.db.QueryRowContext(ctx, getPlayerRating, auth)
	var i PlayerRating
	err := row.Scan(
		&i.Auth,
		&i.Name,
		&i.Rating,
		&i.Ranked,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listPlayerRatings = `
SELECT auth, name, rating, ranked, created_at, updated_at
FROM player_ratings
`

func (q *Queries) ListPlayerRatings(ctx context.Context) ([]PlayerRating, error) {
	rows, err := q.db.QueryContext(ctx, listPlayerRatings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlayerRatings(rows)
}

const topRankedPlayers = `
SELECT auth, name, rating, ranked, created_at, updated_at
FROM player_ratings
WHERE ranked = 1
ORDER BY rating DESC, name ASC
LIMIT ?
`

func (q *Queries) TopRankedPlayers(ctx context.Context, limit int64) ([]PlayerRating, error) {
	rows, err := q.db.QueryContext(ctx, topRankedPlayers, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlayerRatings(rows)
}

func scanPlayerRatings(rows *sql.Rows) ([]PlayerRating, error) {
	var items []PlayerRating
	for rows.Next() {
		var i PlayerRating
		if err := rows.Scan(
			&i.Auth,
			&i.Name,
			&i.Rating,
			&i.Ranked,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type Match struct {
	ID         string
	EndedAt    time.Time
	RedScore   int64
	BlueScore  int64
	Winner     string
	LeagueMode bool
	CreatedAt  time.Time
}

const insertMatch = `
INSERT INTO matches (id, ended_at, red_score, blue_score, winner, league_mode, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type InsertMatchParams struct {
	ID         string
	EndedAt    time.Time
	RedScore   int64
	BlueScore  int64
	Winner     string
	LeagueMode bool
	CreatedAt  time.Time
}

func (q *Queries) InsertMatch(ctx context.Context, arg InsertMatchParams) error {
	_, err := q.db.ExecContext(ctx, insertMatch,
		arg.ID,
		arg.EndedAt,
		arg.RedScore,
		arg.BlueScore,
		arg.Winner,
		arg.LeagueMode,
		arg.CreatedAt,
	)
	return err
}

const recentMatches = `
SELECT id, ended_at, red_score, blue_score, winner, league_mode, created_at
FROM matches
ORDER BY ended_at DESC
LIMIT ?
`

func (q *Queries) RecentMatches(ctx context.Context, limit int64) ([]Match, error) {
	rows, err := q.db.QueryContext(ctx, recentMatches, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Match
	for rows.Next() {
		var i Match
		if err := rows.Scan(
			&i.ID,
			&i.EndedAt,
			&i.RedScore,
			&i.BlueScore,
			&i.Winner,
			&i.LeagueMode,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type MatchPlayer struct {
	MatchID       string
	PlayerID      int64
	Auth          string
	Name          string
	Team          string
	Goals         int64
	Assists       int64
	ShotsOnTarget int64
	Kicks         int64
	Xgot          float64
	Rating        int64
	RatingChange  int64
	Ranked        bool
	TierName      string
}

const insertMatchPlayer = `
INSERT INTO match_players (
    match_id, player_id, auth, name, team, goals, assists, shots_on_target,
    kicks, xgot, rating, rating_change, ranked, tier_name
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertMatchPlayerParams = MatchPlayer

func (q *Queries) InsertMatchPlayer(ctx context.Context, arg InsertMatchPlayerParams) error {
	_, err := q.db.ExecContext(ctx, insertMatchPlayer,
		arg.MatchID,
		arg.PlayerID,
		arg.Auth,
		arg.Name,
		arg.Team,
		arg.Goals,
		arg.Assists,
		arg.ShotsOnTarget,
		arg.Kicks,
		arg.Xgot,
		arg.Rating,
		arg.RatingChange,
		arg.Ranked,
		arg.TierName,
	)
	return err
}

const getMatchPlayers = `
SELECT match_id, player_id, auth, name, team, goals, assists, shots_on_target,
       kicks, xgot, rating, rating_change, ranked, tier_name
FROM match_players
WHERE match_id = ?
ORDER BY player_id
`

func (q *Queries) GetMatchPlayers(ctx context.Context, matchID string) ([]MatchPlayer, error) {
	rows, err := q.db.QueryContext(ctx, getMatchPlayers, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MatchPlayer
	for rows.Next() {
		var i MatchPlayer
		if err := rows.Scan(
			&i.MatchID,
			&i.PlayerID,
			&i.Auth,
			&i.Name,
			&i.Team,
			&i.Goals,
			&i.Assists,
			&i.ShotsOnTarget,
			&i.Kicks,
			&i.Xgot,
			&i.Rating,
			&i.RatingChange,
			&i.Ranked,
			&i.TierName,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
