package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter enforces a windowed call budget on outbound API use.
type RateLimiter struct {
	mu            sync.RWMutex
	requestsCount int64
	lastReset     time.Time
	window        time.Duration
	maxRequests   int64
}

// NewRateLimiter creates a limiter allowing maxRequests calls per
// window. A non-positive limit disables the budget.
func NewRateLimiter(maxRequests int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		lastReset:   time.Now(),
	}
}

// Check consumes one call from the budget. It returns false when the
// budget for the current window is spent.
func (rl *RateLimiter) Check() bool {
	if rl.maxRequests <= 0 {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastReset) >= rl.window {
		rl.requestsCount = 0
		rl.lastReset = now
	}

	if rl.requestsCount < rl.maxRequests {
		rl.requestsCount++
		return true
	}

	return false
}

// GetStatus returns the current budget state.
func (rl *RateLimiter) GetStatus() Status {
	now := time.Now()

	rl.mu.RLock()
	defer rl.mu.RUnlock()

	remaining := rl.maxRequests - rl.requestsCount
	if remaining < 0 {
		remaining = 0
	}

	percentUsed := 0.0
	if rl.maxRequests > 0 {
		percentUsed = float64(rl.requestsCount) / float64(rl.maxRequests) * 100
	}

	return Status{
		Limit:       rl.maxRequests,
		Used:        rl.requestsCount,
		Remaining:   remaining,
		PercentUsed: percentUsed,
		ResetIn:     rl.window - now.Sub(rl.lastReset),
	}
}

// Status is a snapshot of the budget state.
type Status struct {
	Limit       int64
	Used        int64
	Remaining   int64
	PercentUsed float64
	ResetIn     time.Duration
}

// WithLimiter runs fn if the budget allows one more call.
func (rl *RateLimiter) WithLimiter(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rl.Check() {
		return fn()
	}

	return &RateLimitError{Status: rl.GetStatus()}
}

// RateLimitError reports an exhausted call budget.
type RateLimitError struct {
	Status Status
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d/%d used, reset in %v",
		e.Status.Used, e.Status.Limit, e.Status.ResetIn.Round(time.Second))
}
