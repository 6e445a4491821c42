package usage

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUsageNotFound is returned by CounterStore implementations when no
// counter row exists for the user and day.
var ErrUsageNotFound = errors.New("usage: no counters for day")

// DailyUsage is one user's counters for one day. Day is a date in
// "2006-01-02" form, already bucketed in the product timezone.
type DailyUsage struct {
	UserID   uuid.UUID
	Day      string
	Messages int64
	Uploads  int64
}

// CounterStore persists daily counters.
type CounterStore interface {
	// Get returns the user's counters for the day, or ErrUsageNotFound.
	Get(ctx context.Context, userID uuid.UUID, day string) (*DailyUsage, error)

	// Increment adds one message (and optionally one upload) to the user's
	// counters for the day, creating the row if it does not exist. The
	// read-modify-write must be atomic: concurrent increments for the same
	// user and day must all be counted.
	Increment(ctx context.Context, userID uuid.UUID, day string, upload bool) error
}
