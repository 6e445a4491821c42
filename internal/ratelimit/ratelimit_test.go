package ratelimit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cidadao-inteligente/api/internal/ratelimit"
)

func TestNew(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()

	t.Run("NilStore", func(t *testing.T) {
		t.Parallel()
		_, err := ratelimit.New(nil, ratelimit.Config{Limit: 1, Window: time.Second})
		assert.ErrorIs(t, err, ratelimit.ErrInvalidConfig)
	})

	t.Run("ZeroLimit", func(t *testing.T) {
		t.Parallel()
		_, err := ratelimit.New(store, ratelimit.Config{Limit: 0, Window: time.Second})
		assert.ErrorIs(t, err, ratelimit.ErrInvalidConfig)
	})

	t.Run("ZeroWindow", func(t *testing.T) {
		t.Parallel()
		_, err := ratelimit.New(store, ratelimit.Config{Limit: 5})
		assert.ErrorIs(t, err, ratelimit.ErrInvalidConfig)
	})
}

func TestLimiterAllow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("WithinLimit", func(t *testing.T) {
		t.Parallel()
		l, err := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 3, Window: time.Minute})
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			result, err := l.Allow(ctx, "user:a")
			require.NoError(t, err)
			assert.True(t, result.Allowed(), "request %d should be allowed", i+1)
		}
	})

	t.Run("OverLimit", func(t *testing.T) {
		t.Parallel()
		l, err := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 2, Window: time.Minute})
		require.NoError(t, err)

		_, err = l.Allow(ctx, "user:b")
		require.NoError(t, err)
		_, err = l.Allow(ctx, "user:b")
		require.NoError(t, err)

		result, err := l.Allow(ctx, "user:b")
		require.NoError(t, err)
		assert.False(t, result.Allowed())
		assert.Greater(t, result.RetryAfter(), time.Duration(0))
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		t.Parallel()
		l, err := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 1, Window: time.Minute})
		require.NoError(t, err)

		first, err := l.Allow(ctx, "user:c")
		require.NoError(t, err)
		assert.True(t, first.Allowed())

		other, err := l.Allow(ctx, "user:d")
		require.NoError(t, err)
		assert.True(t, other.Allowed())
	})

	t.Run("WindowExpires", func(t *testing.T) {
		t.Parallel()
		l, err := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 1, Window: 30 * time.Millisecond})
		require.NoError(t, err)

		_, err = l.Allow(ctx, "user:e")
		require.NoError(t, err)

		blocked, err := l.Allow(ctx, "user:e")
		require.NoError(t, err)
		assert.False(t, blocked.Allowed())

		time.Sleep(40 * time.Millisecond)

		again, err := l.Allow(ctx, "user:e")
		require.NoError(t, err)
		assert.True(t, again.Allowed())
	})

	t.Run("ConcurrentIncrements", func(t *testing.T) {
		t.Parallel()
		const n = 50
		l, err := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: n, Window: time.Minute})
		require.NoError(t, err)

		var wg sync.WaitGroup
		allowed := make([]bool, n)
		for i := 0; i < n; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				result, err := l.Allow(ctx, "user:f")
				if err == nil {
					allowed[i] = result.Allowed()
				}
			}()
		}
		wg.Wait()

		for i := 0; i < n; i++ {
			assert.True(t, allowed[i], "request %d should be allowed", i)
		}

		over, err := l.Allow(ctx, "user:f")
		require.NoError(t, err)
		assert.False(t, over.Allowed())
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	l, err := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 1, Window: time.Minute})
	require.NoError(t, err)

	handler := ratelimit.Middleware(l, func(r *http.Request) string { return "fixed" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "RATE_LIMITED")
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}
