package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiterConfig configures RateLimiter.
type RateLimiterConfig struct {
	// Rate is the sustained number of calls per second. Default: 10
	Rate float64

	// Burst is the bucket size. Default: 5
	Burst int

	// MaxWait is how long Execute waits for a token before failing with
	// ErrRateLimited. Zero fails immediately.
	MaxWait time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// RateLimiter is a token bucket protecting an upstream quota.
type RateLimiter struct {
	config RateLimiterConfig

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewRateLimiter creates a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 10
	}
	if config.Burst <= 0 {
		config.Burst = 5
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &RateLimiter{
		config: config,
		tokens: float64(config.Burst),
		last:   config.Now(),
	}
}

// Allow takes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	_, ok := rl.reserve()
	return ok
}

// reserve takes a token or reports how long until one is available.
func (rl *RateLimiter) reserve() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.config.Now()
	rl.tokens += now.Sub(rl.last).Seconds() * rl.config.Rate
	rl.last = now
	if burst := float64(rl.config.Burst); rl.tokens > burst {
		rl.tokens = burst
	}

	if rl.tokens >= 1 {
		rl.tokens--
		return 0, true
	}
	return time.Duration((1 - rl.tokens) / rl.config.Rate * float64(time.Second)), false
}

// Wait blocks until a token is taken, MaxWait is exceeded, or ctx ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	wait, ok := rl.reserve()
	if ok {
		return nil
	}
	if wait > rl.config.MaxWait {
		return ErrRateLimited
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	if !rl.Allow() {
		return ErrRateLimited
	}
	return nil
}

// Execute runs op once a token is available.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := rl.Wait(ctx); err != nil {
		return err
	}
	return op(ctx)
}

// Tokens returns the tokens currently in the bucket.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	elapsed := rl.config.Now().Sub(rl.last).Seconds()
	return min(rl.tokens+elapsed*rl.config.Rate, float64(rl.config.Burst))
}
