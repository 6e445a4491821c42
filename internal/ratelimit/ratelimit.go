// Package ratelimit implements a fixed-window rate limiter used to absorb
// bursts on the chat endpoint. It is a separate concern from the daily usage
// quotas: this limiter protects the service, the quotas meter the plan.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidConfig    = errors.New("ratelimit: invalid configuration")
	ErrStoreUnavailable = errors.New("ratelimit: store unavailable")
)

// Config defines the fixed window: at most Limit requests per Window.
type Config struct {
	Limit  int           `env:"CHAT_RATE_LIMIT" envDefault:"20"`
	Window time.Duration `env:"CHAT_RATE_WINDOW" envDefault:"1m"`
}

// Result contains the outcome of a rate limit check.
type Result struct {
	Limit     int       // Maximum requests per window
	Remaining int       // Requests remaining in the current window
	ResetAt   time.Time // When the current window expires
}

// Allowed reports whether the request fits in the current window.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before the next request, or 0 if the
// request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Store counts requests per key within a fixed window.
type Store interface {
	// Incr increments the counter for key, starting a new window of the
	// given length when none is active. Returns the post-increment count
	// and the window expiry.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Limiter applies a fixed-window limit through a Store.
type Limiter struct {
	store Store
	cfg   Config
}

// New creates a Limiter, validating the configuration.
func New(store Store, cfg Config) (*Limiter, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidConfig)
	}
	if cfg.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfig, cfg.Limit)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %v", ErrInvalidConfig, cfg.Window)
	}
	return &Limiter{store: store, cfg: cfg}, nil
}

// Allow consumes one request for key and reports whether it fits.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	count, resetAt, err := l.store.Incr(ctx, key, l.cfg.Window)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	return &Result{
		Limit:     l.cfg.Limit,
		Remaining: l.cfg.Limit - int(count),
		ResetAt:   resetAt,
	}, nil
}
