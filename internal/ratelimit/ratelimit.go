// Package ratelimit paces outbound requests with a randomized delay so the
// scrape cadence does not look machine-generated.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

type RateLimiter interface {
	Wait(ctx context.Context) error
	SetDelay(min, max time.Duration)
}

// PacedLimiter enforces a uniform-random delay in [minDelay, maxDelay]
// between consecutive actions.
type PacedLimiter struct {
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	mu         sync.Mutex
}

func NewPacedLimiter(minDelay, maxDelay time.Duration) *PacedLimiter {
	return &PacedLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

// Wait blocks until enough time has passed since the previous action, or the
// context is cancelled.
func (r *PacedLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.lastAction)
	delay := r.calculateDelay()

	if elapsed < delay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay - elapsed):
		}
	}

	r.lastAction = time.Now()
	return nil
}

func (r *PacedLimiter) SetDelay(min, max time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.minDelay = min
	r.maxDelay = max
}

func (r *PacedLimiter) calculateDelay() time.Duration {
	if r.maxDelay <= r.minDelay {
		return r.minDelay
	}
	delta := r.maxDelay - r.minDelay
	return r.minDelay + time.Duration(rand.Int63n(int64(delta)))
}
