package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	limiter := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		wait, ok := limiter.tryAcquire()
		assert.True(t, ok)
		assert.Zero(t, wait)
	}

	wait, ok := limiter.tryAcquire()
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, time.Minute)
}

func TestRateLimiterWindowResets(t *testing.T) {
	limiter := newRateLimiter(1, 10*time.Millisecond)

	_, ok := limiter.tryAcquire()
	require.True(t, ok)
	_, ok = limiter.tryAcquire()
	require.False(t, ok)

	time.Sleep(15 * time.Millisecond)
	_, ok = limiter.tryAcquire()
	assert.True(t, ok, "a fresh window grants a slot")
}

func TestRateLimiterAcquireBlocksUntilWindowRolls(t *testing.T) {
	limiter := newRateLimiter(1, 20*time.Millisecond)
	require.NoError(t, limiter.Acquire(context.Background()))

	start := time.Now()
	require.NoError(t, limiter.Acquire(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestRateLimiterAcquireHonorsContextCancellation(t *testing.T) {
	limiter := newRateLimiter(1, time.Minute)
	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := limiter.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
