package usage_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cidadao-inteligente/api/internal/usage"
)

func TestMemoryCounterStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	const day = "2026-08-15"

	t.Run("missing row", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryCounterStore()

		_, err := store.Get(ctx, uuid.New(), day)
		require.ErrorIs(t, err, usage.ErrUsageNotFound)
	})

	t.Run("days are independent", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryCounterStore()
		userID := uuid.New()

		require.NoError(t, store.Increment(ctx, userID, "2026-08-14", false))
		require.NoError(t, store.Increment(ctx, userID, "2026-08-15", false))

		u, err := store.Get(ctx, userID, "2026-08-14")
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.Messages)

		u, err = store.Get(ctx, userID, "2026-08-15")
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.Messages)
	})

	t.Run("users are independent", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryCounterStore()
		a, b := uuid.New(), uuid.New()

		require.NoError(t, store.Increment(ctx, a, day, true))
		require.NoError(t, store.Increment(ctx, b, day, false))

		ua, err := store.Get(ctx, a, day)
		require.NoError(t, err)
		assert.Equal(t, int64(1), ua.Uploads)

		ub, err := store.Get(ctx, b, day)
		require.NoError(t, err)
		assert.Equal(t, int64(0), ub.Uploads)
	})

	// Concurrent increments for the same user and day must all land:
	// exactly 7 writers means exactly 7 messages, not "at least 6".
	t.Run("concurrent increments are all counted", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryCounterStore()
		userID := uuid.New()

		const writers = 7
		var wg sync.WaitGroup
		wg.Add(writers)
		for i := 0; i < writers; i++ {
			go func() {
				defer wg.Done()
				_ = store.Increment(ctx, userID, day, false)
			}()
		}
		wg.Wait()

		u, err := store.Get(ctx, userID, day)
		require.NoError(t, err)
		assert.Equal(t, int64(writers), u.Messages)
	})
}
