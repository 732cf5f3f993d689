package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"
)

// BackoffStrategy defines how delays grow between attempts.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay by Multiplier each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear grows the delay by InitialDelay each attempt.
	BackoffLinear
	// BackoffConstant waits InitialDelay between every attempt.
	BackoffConstant
)

// String returns the configuration name of the strategy.
func (s BackoffStrategy) String() string {
	switch s {
	case BackoffExponential:
		return "exponential"
	case BackoffLinear:
		return "linear"
	case BackoffConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// ParseBackoff parses a strategy name. The empty string is exponential.
func ParseBackoff(s string) (BackoffStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exponential":
		return BackoffExponential, nil
	case "linear":
		return BackoffLinear, nil
	case "constant":
		return BackoffConstant, nil
	default:
		return 0, fmt.Errorf("resilience: unknown backoff strategy %q", s)
	}
}

// RetryConfig configures Retry.
type RetryConfig struct {
	// MaxAttempts counts the first call. Default: 3
	MaxAttempts int

	// InitialDelay is the wait before the second attempt. Default: 200ms
	InitialDelay time.Duration

	// MaxDelay caps any single wait. Default: 5s
	MaxDelay time.Duration

	// Multiplier applies to BackoffExponential. Default: 2.0
	Multiplier float64

	Strategy BackoffStrategy

	// Jitter adds up to 25% random delay.
	Jitter bool

	// RetryIf decides whether err is worth another attempt. The default
	// retries everything except permanent errors and context cancellation.
	RetryIf func(err error) bool

	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry re-runs a failing operation with backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a Retry, filling zero fields with defaults.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 200 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 5 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = retryable
	}
	return &Retry{config: config}
}

func retryable(err error) bool {
	if err == nil || IsPermanent(err) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, ErrCircuitOpen)
}

// Execute calls op until it succeeds, the attempts run out, RetryIf
// rejects the error, or ctx ends. The last operation error is returned.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !r.config.RetryIf(lastErr) || attempt == r.config.MaxAttempts {
			return lastErr
		}

		delay := r.Delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, lastErr, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(lastErr, ctx.Err())
		case <-timer.C:
		}
	}
	return lastErr
}

// Delay returns the wait after the given failed attempt (1-based).
func (r *Retry) Delay(attempt int) time.Duration {
	var delay time.Duration
	switch r.config.Strategy {
	case BackoffConstant:
		delay = r.config.InitialDelay
	case BackoffLinear:
		delay = r.config.InitialDelay * time.Duration(attempt)
	default:
		delay = time.Duration(float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1)))
	}
	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}
	if r.config.Jitter && delay >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int64N(int64(delay / 4)))
	}
	return delay
}

// Config returns the effective configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
