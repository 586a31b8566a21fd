package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitEnforcesMinimumGap(t *testing.T) {
	limiter := NewPacedLimiter(40*time.Millisecond, 60*time.Millisecond)

	require.NoError(t, limiter.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background()))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 35*time.Millisecond)
	assert.Less(t, elapsed, 200*time.Millisecond)
}

func TestWaitZeroDelaysDoNotBlock(t *testing.T) {
	limiter := NewPacedLimiter(0, 0)

	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitHonoursCancellation(t *testing.T) {
	limiter := NewPacedLimiter(5*time.Second, 5*time.Second)
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSetDelayTakesEffect(t *testing.T) {
	limiter := NewPacedLimiter(5*time.Second, 10*time.Second)
	limiter.SetDelay(0, 0)

	require.NoError(t, limiter.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
