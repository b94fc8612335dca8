package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"league-referee/internal/constants"
	"league-referee/internal/db"
	"league-referee/internal/domain"
	"league-referee/internal/rank"

	"github.com/rs/zerolog"
)

// StoredRating is a player rating keyed by the host auth key.
type StoredRating struct {
	Auth      string
	Name      string
	Rating    domain.PlayerRating
	UpdatedAt time.Time
}

// Tier names the rank band for ranked players and is empty otherwise.
func (s StoredRating) Tier() string {
	if !s.Rating.Ranked {
		return ""
	}
	return rank.Lookup(s.Rating.Rating).Name
}

type RatingRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewRatingRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *RatingRepository {
	return &RatingRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *RatingRepository) Get(ctx context.Context, auth string) (*StoredRating, error) {
	row, err := r.queries.GetPlayerRating(ctx, auth)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s := toStoredRating(row)
	return &s, nil
}

func (r *RatingRepository) All(ctx context.Context) ([]StoredRating, error) {
	rows, err := r.queries.ListPlayerRatings(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]StoredRating, len(rows))
	for i, row := range rows {
		result[i] = toStoredRating(row)
	}
	return result, nil
}

func (r *RatingRepository) Top(ctx context.Context, limit int) ([]StoredRating, error) {
	rows, err := r.queries.TopRankedPlayers(ctx, int64(limit))
	if err != nil {
		return nil, err
	}
	result := make([]StoredRating, len(rows))
	for i, row := range rows {
		result[i] = toStoredRating(row)
	}
	return result, nil
}

// UpsertBatch writes ratings in one transaction. Records without an auth
// key are skipped since they cannot be matched on a later join.
func (r *RatingRepository) UpsertBatch(ctx context.Context, records []StoredRating) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	now := time.Now()

	for i := 0; i < len(records); i += constants.DBBatchSize {
		end := min(i+constants.DBBatchSize, len(records))

		for _, rec := range records[i:end] {
			if rec.Auth == "" {
				r.logger.Debug().Str("name", rec.Name).Msg("skipping rating without auth")
				continue
			}
			err := qtx.UpsertPlayerRating(ctx, db.UpsertPlayerRatingParams{
				Auth:      rec.Auth,
				Name:      rec.Name,
				Rating:    int64(rec.Rating.Rating),
				Ranked:    rec.Rating.Ranked,
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("failed to upsert rating %s: %w", rec.Auth, err)
			}
		}
	}

	return tx.Commit()
}

func toStoredRating(row db.PlayerRating) StoredRating {
	return StoredRating{
		Auth:      row.Auth,
		Name:      row.Name,
		Rating:    domain.PlayerRating{Rating: int(row.Rating), Ranked: row.Ranked},
		UpdatedAt: row.UpdatedAt,
	}
}
