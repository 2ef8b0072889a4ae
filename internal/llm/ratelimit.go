package llm

import (
	"context"
	"sync"
	"time"
)

// rateLimiter is a fixed-window limiter. Acquire blocks the caller until a
// slot frees rather than failing, per the dispatcher contract.
type rateLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	windowStart time.Time
	used        int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:       limit,
		window:      window,
		windowStart: time.Now(),
	}
}

// Acquire blocks until a slot is available in the current window or the
// context is cancelled.
func (r *rateLimiter) Acquire(ctx context.Context) error {
	for {
		wait, ok := r.tryAcquire()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAcquire consumes a slot if one is free. When the window is exhausted it
// returns the time remaining until the window resets.
func (r *rateLimiter) tryAcquire() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if now.Sub(r.windowStart) >= r.window {
		r.windowStart = now
		r.used = 0
	}

	if r.used < r.limit {
		r.used++
		return 0, true
	}

	return r.window - now.Sub(r.windowStart), false
}
