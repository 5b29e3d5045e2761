package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/ratelimit"
)

func TestNewWindow(t *testing.T) {
	t.Parallel()

	t.Run("validates inputs", func(t *testing.T) {
		t.Parallel()
		_, err := ratelimit.NewWindow(nil, 10, time.Minute)
		require.ErrorIs(t, err, ratelimit.ErrStoreRequired)

		_, err = ratelimit.NewWindow(ratelimit.NewMemoryStore(), 0, time.Minute)
		require.ErrorIs(t, err, ratelimit.ErrInvalidLimit)

		_, err = ratelimit.NewWindow(ratelimit.NewMemoryStore(), 10, 0)
		require.ErrorIs(t, err, ratelimit.ErrInvalidWindow)
	})
}

func TestWindowAllow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("allows up to limit then blocks", func(t *testing.T) {
		t.Parallel()
		limiter, err := ratelimit.NewWindow(ratelimit.NewMemoryStore(), 3, time.Minute)
		require.NoError(t, err)

		for i := range 3 {
			result, err := limiter.Allow(ctx, "key")
			require.NoError(t, err)
			assert.True(t, result.Allowed, "request %d", i)
			assert.Equal(t, 3-i-1, result.Remaining)
		}

		result, err := limiter.Allow(ctx, "key")
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Zero(t, result.Remaining)
		assert.Positive(t, result.RetryAfter())
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()
		limiter, err := ratelimit.NewWindow(ratelimit.NewMemoryStore(), 1, time.Minute)
		require.NoError(t, err)

		a, err := limiter.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, a.Allowed)

		b, err := limiter.Allow(ctx, "b")
		require.NoError(t, err)
		assert.True(t, b.Allowed)
	})

	t.Run("window rolls over", func(t *testing.T) {
		t.Parallel()
		limiter, err := ratelimit.NewWindow(ratelimit.NewMemoryStore(), 1, 30*time.Millisecond)
		require.NoError(t, err)

		first, err := limiter.Allow(ctx, "key")
		require.NoError(t, err)
		assert.True(t, first.Allowed)

		blocked, err := limiter.Allow(ctx, "key")
		require.NoError(t, err)
		assert.False(t, blocked.Allowed)

		time.Sleep(50 * time.Millisecond)

		again, err := limiter.Allow(ctx, "key")
		require.NoError(t, err)
		assert.True(t, again.Allowed)
	})

	t.Run("reset clears the counter", func(t *testing.T) {
		t.Parallel()
		limiter, err := ratelimit.NewWindow(ratelimit.NewMemoryStore(), 1, time.Minute)
		require.NoError(t, err)

		_, err = limiter.Allow(ctx, "key")
		require.NoError(t, err)
		require.NoError(t, limiter.Reset(ctx, "key"))

		result, err := limiter.Allow(ctx, "key")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		t.Parallel()
		limiter, err := ratelimit.NewWindow(ratelimit.NewMemoryStore(), 1, time.Minute)
		require.NoError(t, err)

		_, err = limiter.Allow(ctx, "")
		require.ErrorIs(t, err, ratelimit.ErrKeyRequired)
	})
}
