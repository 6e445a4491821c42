package usage_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cidadao-inteligente/api/internal/billing"
	"github.com/cidadao-inteligente/api/internal/usage"
)

type fakePlanSource struct {
	rec *billing.Record
}

func (f *fakePlanSource) PlanRecord(context.Context, uuid.UUID) *billing.Record {
	return f.rec
}

type failingCounterStore struct{}

func (failingCounterStore) Get(context.Context, uuid.UUID, string) (*usage.DailyUsage, error) {
	return nil, errors.New("connection refused")
}

func (failingCounterStore) Increment(context.Context, uuid.UUID, string, bool) error {
	return errors.New("connection refused")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGate(t *testing.T, plan *billing.Record, counters usage.CounterStore, opts ...usage.GateOption) *usage.Gate {
	t.Helper()
	return usage.NewGate(&fakePlanSource{rec: plan}, counters, discardLogger(), opts...)
}

func activeRecord(userID uuid.UUID, plan billing.Plan) *billing.Record {
	return &billing.Record{UserID: userID, Plan: plan, Status: billing.StatusActive}
}

func seedMessages(t *testing.T, store usage.CounterStore, gate *usage.Gate, userID uuid.UUID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, store.Increment(context.Background(), userID, gate.Today(), false))
	}
}

func TestGateAllow(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	ctx := context.Background()

	t.Run("free user within limits", func(t *testing.T) {
		t.Parallel()
		gate := newGate(t, nil, usage.NewMemoryCounterStore())

		decision, err := gate.Allow(ctx, userID, false)
		require.NoError(t, err)
		assert.Equal(t, billing.PlanFree, decision.Plan)
		assert.Equal(t, billing.StatusNone, decision.Status)
		assert.Equal(t, int64(8), decision.Quota.DailyMessages)
	})

	t.Run("paid plan with pending payment is rejected", func(t *testing.T) {
		t.Parallel()
		rec := &billing.Record{UserID: userID, Plan: billing.PlanPro, Status: billing.StatusPending}
		gate := newGate(t, rec, usage.NewMemoryCounterStore())

		_, err := gate.Allow(ctx, userID, false)
		require.ErrorIs(t, err, usage.ErrPlanNotActive)

		var notActive *usage.PlanNotActiveError
		require.ErrorAs(t, err, &notActive)
		assert.Equal(t, billing.PlanPro, notActive.Plan)
		assert.Equal(t, billing.StatusPending, notActive.Status)
	})

	t.Run("cancelled paid plan is rejected", func(t *testing.T) {
		t.Parallel()
		rec := &billing.Record{UserID: userID, Plan: billing.PlanBasic, Status: billing.StatusCancelled}
		gate := newGate(t, rec, usage.NewMemoryCounterStore())

		_, err := gate.Allow(ctx, userID, false)

		var notActive *usage.PlanNotActiveError
		require.ErrorAs(t, err, &notActive)
		assert.Equal(t, billing.StatusCancelled, notActive.Status)
	})

	t.Run("suspension outranks quota", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryCounterStore()
		rec := &billing.Record{UserID: userID, Plan: billing.PlanBasic, Status: billing.StatusPaused}
		gate := newGate(t, rec, store)
		seedMessages(t, store, gate, userID, 500)

		_, err := gate.Allow(ctx, userID, true)
		require.ErrorIs(t, err, usage.ErrPlanNotActive)
	})

	t.Run("free user cannot upload", func(t *testing.T) {
		t.Parallel()
		gate := newGate(t, nil, usage.NewMemoryCounterStore())

		_, err := gate.Allow(ctx, userID, true)
		require.ErrorIs(t, err, usage.ErrUploadNotAllowed)
	})

	t.Run("free user hits the daily message limit", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryCounterStore()
		gate := newGate(t, nil, store)
		seedMessages(t, store, gate, userID, 8)

		_, err := gate.Allow(ctx, userID, false)
		require.ErrorIs(t, err, usage.ErrDailyLimitReached)

		var quotaErr *usage.QuotaError
		require.ErrorAs(t, err, &quotaErr)
		assert.Equal(t, int64(8), quotaErr.Limit)
		assert.Equal(t, billing.PlanFree, quotaErr.Plan)
	})

	t.Run("basic user hits the upload limit", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryCounterStore()
		gate := newGate(t, activeRecord(userID, billing.PlanBasic), store)
		for i := 0; i < 10; i++ {
			require.NoError(t, store.Increment(ctx, userID, gate.Today(), true))
		}

		// Uploads are exhausted but messages (10 of 120) are not.
		_, err := gate.Allow(ctx, userID, true)
		require.ErrorIs(t, err, usage.ErrUploadLimitReached)

		decision, err := gate.Allow(ctx, userID, false)
		require.NoError(t, err)
		assert.Equal(t, billing.PlanBasic, decision.Plan)
	})

	t.Run("pro user is never limited", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryCounterStore()
		gate := newGate(t, activeRecord(userID, billing.PlanPro), store)
		seedMessages(t, store, gate, userID, 10000)

		decision, err := gate.Allow(ctx, userID, true)
		require.NoError(t, err)
		assert.Equal(t, billing.PlanPro, decision.Plan)
		assert.Equal(t, billing.Unlimited, decision.Quota.DailyMessages)
	})

	t.Run("counter read failure fails open", func(t *testing.T) {
		t.Parallel()
		gate := newGate(t, activeRecord(userID, billing.PlanBasic), failingCounterStore{})

		decision, err := gate.Allow(ctx, userID, false)
		require.NoError(t, err)
		assert.Equal(t, billing.PlanBasic, decision.Plan)
	})
}

func TestGateDayBoundary(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	ctx := context.Background()
	saoPaulo, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	t.Run("days bucket in the product timezone", func(t *testing.T) {
		t.Parallel()
		// 01:30 UTC is still the previous day in São Paulo (UTC-3).
		at := time.Date(2026, 8, 15, 1, 30, 0, 0, time.UTC)
		gate := usage.NewGate(&fakePlanSource{}, usage.NewMemoryCounterStore(), discardLogger(),
			usage.WithLocation(saoPaulo),
			usage.WithClock(func() time.Time { return at }))

		assert.Equal(t, "2026-08-14", gate.Today())
	})

	t.Run("quota resets at the timezone midnight", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryCounterStore()
		now := time.Date(2026, 8, 15, 23, 0, 0, 0, saoPaulo)
		gate := usage.NewGate(&fakePlanSource{}, store, discardLogger(),
			usage.WithLocation(saoPaulo),
			usage.WithClock(func() time.Time { return now }))

		seedMessages(t, store, gate, userID, 8)
		_, err := gate.Allow(ctx, userID, false)
		require.ErrorIs(t, err, usage.ErrDailyLimitReached)

		now = now.Add(2 * time.Hour)
		_, err = gate.Allow(ctx, userID, false)
		require.NoError(t, err)
	})
}

func TestGateCommit(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	ctx := context.Background()

	t.Run("first message creates the day row", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryCounterStore()
		gate := newGate(t, nil, store)

		gate.Commit(ctx, userID, false)

		u, err := store.Get(ctx, userID, gate.Today())
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.Messages)
		assert.Equal(t, int64(0), u.Uploads)
	})

	t.Run("upload increments both counters", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryCounterStore()
		gate := newGate(t, nil, store)

		gate.Commit(ctx, userID, false)
		gate.Commit(ctx, userID, true)

		u, err := store.Get(ctx, userID, gate.Today())
		require.NoError(t, err)
		assert.Equal(t, int64(2), u.Messages)
		assert.Equal(t, int64(1), u.Uploads)
	})

	t.Run("store failure does not panic", func(t *testing.T) {
		t.Parallel()
		gate := newGate(t, nil, failingCounterStore{})

		assert.NotPanics(t, func() { gate.Commit(ctx, userID, true) })
	})
}

func TestConfigLocation(t *testing.T) {
	t.Parallel()

	loc := usage.Config{Timezone: "America/Sao_Paulo"}.Location(discardLogger())
	assert.Equal(t, "America/Sao_Paulo", loc.String())

	loc = usage.Config{Timezone: "Not/AZone"}.Location(discardLogger())
	assert.Equal(t, time.UTC, loc)
}
