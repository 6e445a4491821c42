package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cidadao-inteligente/api/internal/billing"
)

// PlanStore is the PostgreSQL implementation of billing.PlanStore.
type PlanStore struct {
	pool *pgxpool.Pool
}

// NewPlanStore creates a plan store over the pool.
func NewPlanStore(pool *pgxpool.Pool) *PlanStore {
	if pool == nil {
		panic("storage: pgx pool is required")
	}
	return &PlanStore{pool: pool}
}

// Get implements billing.PlanStore.
func (s *PlanStore) Get(ctx context.Context, userID uuid.UUID) (*billing.Record, error) {
	const query = `
		SELECT user_id, plan, status, preapproval_id, init_point, raw_status, next_payment_at, updated_at
		FROM user_plans
		WHERE user_id = $1`

	var rec billing.Record
	var plan, status string
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&rec.UserID,
		&plan,
		&status,
		&rec.PreapprovalID,
		&rec.InitPoint,
		&rec.RawStatus,
		&rec.NextPaymentAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrRecordNotFound
		}
		return nil, fmt.Errorf("storage: failed to load plan record: %w", err)
	}
	rec.Plan = billing.Plan(plan)
	rec.Status = billing.Status(status)
	return &rec, nil
}

// Upsert implements billing.PlanStore. Later writes win; the webhook
// reconciler relies on that to overwrite a pending record with the
// authoritative state.
func (s *PlanStore) Upsert(ctx context.Context, rec *billing.Record) error {
	const query = `
		INSERT INTO user_plans (user_id, plan, status, preapproval_id, init_point, raw_status, next_payment_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			plan            = EXCLUDED.plan,
			status          = EXCLUDED.status,
			preapproval_id  = EXCLUDED.preapproval_id,
			init_point      = EXCLUDED.init_point,
			raw_status      = EXCLUDED.raw_status,
			next_payment_at = EXCLUDED.next_payment_at,
			updated_at      = EXCLUDED.updated_at`

	_, err := s.pool.Exec(ctx, query,
		rec.UserID,
		string(rec.Plan),
		string(rec.Status),
		rec.PreapprovalID,
		rec.InitPoint,
		rec.RawStatus,
		rec.NextPaymentAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: failed to upsert plan record: %w", err)
	}
	return nil
}
