package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBudget(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)

	assert.True(t, rl.Check())
	assert.True(t, rl.Check())
	assert.False(t, rl.Check())

	status := rl.GetStatus()
	assert.Equal(t, int64(2), status.Limit)
	assert.Equal(t, int64(2), status.Used)
	assert.Equal(t, int64(0), status.Remaining)
}

func TestRateLimiterDisabledWhenNonPositive(t *testing.T) {
	rl := NewRateLimiter(0, time.Hour)
	for i := 0; i < 10; i++ {
		assert.True(t, rl.Check())
	}
}

func TestWithLimiter(t *testing.T) {
	t.Run("runs fn while budget remains", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Hour)

		calls := 0
		err := rl.WithLimiter(context.Background(), func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("propagates fn error", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Hour)

		sentinel := errors.New("upstream failed")
		err := rl.WithLimiter(context.Background(), func() error { return sentinel })
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("returns rate limit error when budget is spent", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Hour)
		require.True(t, rl.Check())

		err := rl.WithLimiter(context.Background(), func() error {
			t.Fatal("fn must not run once the budget is spent")
			return nil
		})

		var rlErr *RateLimitError
		require.True(t, errors.As(err, &rlErr))
		assert.Equal(t, int64(1), rlErr.Status.Used)
		assert.Contains(t, err.Error(), "rate limit exceeded")
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Hour)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := rl.WithLimiter(ctx, func() error {
			t.Fatal("fn must not run with a cancelled context")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		// cancellation must not consume budget
		assert.Equal(t, int64(0), rl.GetStatus().Used)
	})
}
