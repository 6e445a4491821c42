package billing

import (
	"context"

	"github.com/google/uuid"
)

// PlanStore persists plan records. Implementations must treat Upsert as an
// overwrite keyed by user ID: a user has at most one record and later
// writes win.
type PlanStore interface {
	// Get returns the user's plan record, or ErrRecordNotFound.
	Get(ctx context.Context, userID uuid.UUID) (*Record, error)

	// Upsert creates or replaces the user's plan record.
	Upsert(ctx context.Context, rec *Record) error
}
