package usage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cidadao-inteligente/api/internal/billing"
)

// Config holds the usage tuning loaded from the environment.
type Config struct {
	// Timezone buckets the daily counters; the default follows the
	// product's user base.
	Timezone string `env:"USAGE_TIMEZONE" envDefault:"America/Sao_Paulo"`
}

// PlanSource provides the stored plan record for a user, or nil when none
// exists or billing state is unavailable. billing.Service satisfies it.
type PlanSource interface {
	PlanRecord(ctx context.Context, userID uuid.UUID) *billing.Record
}

// Decision is the gate's verdict for one request: the resolved tier and
// the quota it was checked against.
type Decision struct {
	Plan   billing.Plan
	Status billing.Status
	Quota  billing.Quota
}

// Gate checks quota before a request is served and records consumption
// after.
type Gate struct {
	plans    PlanSource
	counters CounterStore
	loc      *time.Location
	log      *slog.Logger
	now      func() time.Time
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLocation overrides the timezone used to bucket days.
func WithLocation(loc *time.Location) GateOption {
	return func(g *Gate) {
		if loc != nil {
			g.loc = loc
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

// NewGate creates a usage gate. Plans and counters are required.
func NewGate(plans PlanSource, counters CounterStore, log *slog.Logger, opts ...GateOption) *Gate {
	if plans == nil {
		panic("usage: plan source is required")
	}
	if counters == nil {
		panic("usage: counter store is required")
	}
	if log == nil {
		log = slog.Default()
	}
	g := &Gate{
		plans:    plans,
		counters: counters,
		loc:      time.UTC,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Location resolves the configured timezone, falling back to UTC when the
// zone database does not know it.
func (c Config) Location(log *slog.Logger) *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		if log != nil {
			log.Warn("unknown usage timezone, falling back to UTC", slog.String("timezone", c.Timezone))
		}
		return time.UTC
	}
	return loc
}

// Today returns the current day bucket in the gate's timezone.
func (g *Gate) Today() string {
	return g.now().In(g.loc).Format("2006-01-02")
}

// Allow checks whether the user may send a message (and optionally an
// upload) right now. Checks run in a fixed order so a user who is both
// suspended and over quota always sees the suspension first:
//
//  1. paid plan with a non-active subscription
//  2. upload requested but the plan has no upload permission
//  3. daily message limit
//  4. daily upload limit
//
// Counter read failures fail open: quota is a product boundary, not a
// security one, and a storage blip must not take the assistant down.
func (g *Gate) Allow(ctx context.Context, userID uuid.UUID, wantsUpload bool) (Decision, error) {
	rec := g.plans.PlanRecord(ctx, userID)
	ent := billing.ResolveEntitlement(rec)

	if rec != nil && rec.Plan.Paid() {
		if billing.NormalizeStatus(string(rec.Status)) != billing.StatusActive {
			return Decision{}, &PlanNotActiveError{Plan: rec.Plan, Status: ent.Status}
		}
	}

	quota := billing.QuotaFor(ent.Plan)
	decision := Decision{Plan: ent.Plan, Status: ent.Status, Quota: quota}

	if wantsUpload && !quota.UploadAllowed {
		return Decision{}, &QuotaError{Plan: ent.Plan, Status: ent.Status, sentinel: ErrUploadNotAllowed}
	}

	var messages, uploads int64
	u, err := g.counters.Get(ctx, userID, g.Today())
	switch {
	case err == nil:
		messages, uploads = u.Messages, u.Uploads
	case errors.Is(err, ErrUsageNotFound):
		// first request of the day
	default:
		g.log.WarnContext(ctx, "failed to read usage counters, allowing request",
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
	}

	if quota.DailyMessages != billing.Unlimited && messages >= quota.DailyMessages {
		return Decision{}, &QuotaError{Plan: ent.Plan, Status: ent.Status, Limit: quota.DailyMessages, sentinel: ErrDailyLimitReached}
	}
	if wantsUpload && quota.DailyUploads != billing.Unlimited && uploads >= quota.DailyUploads {
		return Decision{}, &QuotaError{Plan: ent.Plan, Status: ent.Status, Limit: quota.DailyUploads, sentinel: ErrUploadLimitReached}
	}

	return decision, nil
}

// Commit records one message (and optionally one upload) against today's
// counters. Failures are logged and swallowed: the reply was already
// produced and must reach the user.
func (g *Gate) Commit(ctx context.Context, userID uuid.UUID, wantsUpload bool) {
	if err := g.counters.Increment(ctx, userID, g.Today(), wantsUpload); err != nil {
		g.log.ErrorContext(ctx, "failed to record usage",
			slog.String("user_id", userID.String()),
			slog.Bool("upload", wantsUpload),
			slog.Any("error", err))
	}
}
