package resilience

import (
	"errors"
	"time"
)

// Policy is the configuration form of an Executor.
type Policy struct {
	Timeout         time.Duration `yaml:"timeout"`
	Attempts        int           `yaml:"attempts"`
	Backoff         string        `yaml:"backoff"`
	InitialDelay    time.Duration `yaml:"initial_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	BreakerFailures int           `yaml:"breaker_failures"`
	BreakerReset    time.Duration `yaml:"breaker_reset"`
	RatePerSecond   float64       `yaml:"rate_per_second"`
	RateBurst       int           `yaml:"rate_burst"`
	RateWait        time.Duration `yaml:"rate_wait"`
}

// DefaultPolicy suits a third-party HTTP API with a free-tier quota.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:         5 * time.Second,
		Attempts:        3,
		Backoff:         "exponential",
		InitialDelay:    200 * time.Millisecond,
		MaxDelay:        2 * time.Second,
		BreakerFailures: 5,
		BreakerReset:    30 * time.Second,
		RatePerSecond:   5,
		RateBurst:       5,
		RateWait:        time.Second,
	}
}

// Validate reports every invalid field.
func (p Policy) Validate() error {
	var errs []error
	if p.Timeout < 0 {
		errs = append(errs, errors.New("resilience: timeout must not be negative"))
	}
	if p.Attempts < 0 {
		errs = append(errs, errors.New("resilience: attempts must not be negative"))
	}
	if _, err := ParseBackoff(p.Backoff); err != nil {
		errs = append(errs, err)
	}
	if p.RatePerSecond < 0 {
		errs = append(errs, errors.New("resilience: rate_per_second must not be negative"))
	}
	return errors.Join(errs...)
}

// Hooks observe an executor built from a Policy.
type Hooks struct {
	OnRetry       func(attempt int, err error, delay time.Duration)
	OnStateChange func(name string, from, to State)
}

// NewPolicyExecutor builds the executor described by p. Guards whose
// settings are zero are left out, except retry, which always runs with
// at least one attempt.
func NewPolicyExecutor(name string, p Policy, hooks Hooks) *Executor {
	strategy, _ := ParseBackoff(p.Backoff)
	opts := []ExecutorOption{
		WithRetry(NewRetry(RetryConfig{
			MaxAttempts:  p.Attempts,
			InitialDelay: p.InitialDelay,
			MaxDelay:     p.MaxDelay,
			Strategy:     strategy,
			Jitter:       true,
			OnRetry:      hooks.OnRetry,
		})),
	}
	if p.Timeout > 0 {
		opts = append(opts, WithTimeout(p.Timeout))
	}
	if p.BreakerFailures > 0 {
		opts = append(opts, WithCircuitBreaker(NewCircuitBreaker(CircuitBreakerConfig{
			Name:          name,
			MaxFailures:   p.BreakerFailures,
			ResetTimeout:  p.BreakerReset,
			OnStateChange: hooks.OnStateChange,
		})))
	}
	if p.RatePerSecond > 0 {
		opts = append(opts, WithRateLimiter(NewRateLimiter(RateLimiterConfig{
			Rate:    p.RatePerSecond,
			Burst:   p.RateBurst,
			MaxWait: p.RateWait,
		})))
	}
	return NewExecutor(opts...)
}
