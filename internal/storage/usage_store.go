package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cidadao-inteligente/api/internal/usage"
)

// UsageStore is the PostgreSQL implementation of usage.CounterStore.
type UsageStore struct {
	pool *pgxpool.Pool
}

// NewUsageStore creates a counter store over the pool.
func NewUsageStore(pool *pgxpool.Pool) *UsageStore {
	if pool == nil {
		panic("storage: pgx pool is required")
	}
	return &UsageStore{pool: pool}
}

// Get implements usage.CounterStore.
func (s *UsageStore) Get(ctx context.Context, userID uuid.UUID, day string) (*usage.DailyUsage, error) {
	const query = `
		SELECT count_messages, count_uploads
		FROM usage_daily
		WHERE user_id = $1 AND day = $2`

	u := usage.DailyUsage{UserID: userID, Day: day}
	err := s.pool.QueryRow(ctx, query, userID, day).Scan(&u.Messages, &u.Uploads)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, usage.ErrUsageNotFound
		}
		return nil, fmt.Errorf("storage: failed to load usage counters: %w", err)
	}
	return &u, nil
}

// Increment implements usage.CounterStore. The upsert is one statement so
// concurrent increments for the same user and day serialize on the row
// and every count lands.
func (s *UsageStore) Increment(ctx context.Context, userID uuid.UUID, day string, upload bool) error {
	const query = `
		INSERT INTO usage_daily (user_id, day, count_messages, count_uploads)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (user_id, day) DO UPDATE SET
			count_messages = usage_daily.count_messages + 1,
			count_uploads  = usage_daily.count_uploads + EXCLUDED.count_uploads`

	uploads := 0
	if upload {
		uploads = 1
	}
	if _, err := s.pool.Exec(ctx, query, userID, day, uploads); err != nil {
		return fmt.Errorf("storage: failed to increment usage counters: %w", err)
	}
	return nil
}
