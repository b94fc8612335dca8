package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"league-referee/internal/db"
	"league-referee/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type MatchRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// enriched
type MatchRecord struct {
	ID         string
	EndedAt    time.Time
	Scores     domain.Scores
	Winner     string
	LeagueMode bool
	Players    []db.MatchPlayer
}

// Save stores the match and its stat lines, returning the generated id.
func (r *MatchRepository) Save(ctx context.Context, res domain.MatchResult) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate nanoid: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	err = qtx.InsertMatch(ctx, db.InsertMatchParams{
		ID:         id,
		EndedAt:    res.EndedAt,
		RedScore:   int64(res.Scores.Red),
		BlueScore:  int64(res.Scores.Blue),
		Winner:     res.Winner.String(),
		LeagueMode: res.LeagueMode,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert match: %w", err)
	}

	deltas := make(map[int]int, len(res.Changes))
	for _, c := range res.Changes {
		deltas[c.PlayerID] = c.After - c.Before
	}

	for _, l := range res.Lines {
		err := qtx.InsertMatchPlayer(ctx, db.InsertMatchPlayerParams{
			MatchID:       id,
			PlayerID:      int64(l.PlayerID),
			Auth:          l.Auth,
			Name:          l.Name,
			Team:          l.Team.String(),
			Goals:         int64(l.Stats.Goals),
			Assists:       int64(l.Stats.Assists),
			ShotsOnTarget: int64(l.Stats.ShotsOnTarget),
			Kicks:         int64(l.Stats.Kicks),
			Xgot:          l.Stats.ExpectedGoalsOnTarget,
			Rating:        int64(l.Rating.Rating),
			RatingChange:  int64(deltas[l.PlayerID]),
			Ranked:        l.Rating.Ranked,
			TierName:      l.TierName,
		})
		if err != nil {
			return "", fmt.Errorf("failed to insert match player %d: %w", l.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit match: %w", err)
	}
	r.logger.Debug().Str("match_id", id).Int("players", len(res.Lines)).Msg("match saved")
	return id, nil
}

func (r *MatchRepository) Recent(ctx context.Context, limit int) ([]MatchRecord, error) {
	rows, err := r.queries.RecentMatches(ctx, int64(limit))
	if err != nil {
		return nil, err
	}

	results := make([]MatchRecord, len(rows))
	for i, row := range rows {
		players, err := r.queries.GetMatchPlayers(ctx, row.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load players for match %s: %w", row.ID, err)
		}
		results[i] = MatchRecord{
			ID:         row.ID,
			EndedAt:    row.EndedAt,
			Scores:     domain.Scores{Red: int(row.RedScore), Blue: int(row.BlueScore)},
			Winner:     row.Winner,
			LeagueMode: row.LeagueMode,
			Players:    players,
		}
	}
	return results, nil
}
