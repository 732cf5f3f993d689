package resilience

import (
	"context"
	"time"
)

// Executor composes the guards around one upstream. From the outside in:
// rate limiter, bulkhead, circuit breaker, retry, per-attempt timeout.
type Executor struct {
	limiter  *RateLimiter
	bulkhead *Bulkhead
	breaker  *CircuitBreaker
	retry    *Retry
	timeout  *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an Executor. With no options it simply runs the
// operation.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.limiter = rl }
}

func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) { e.bulkhead = b }
}

func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.breaker = cb }
}

func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithTimeout bounds each attempt to d.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = NewTimeout(d) }
}

// Breaker returns the configured circuit breaker, or nil.
func (e *Executor) Breaker() *CircuitBreaker {
	return e.breaker
}

// Execute runs op through every configured guard.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	run := op
	if e.timeout != nil {
		run = wrap(run, e.timeout.Execute)
	}
	if e.retry != nil {
		run = wrap(run, e.retry.Execute)
	}
	if e.breaker != nil {
		run = wrap(run, e.breaker.Execute)
	}
	if e.bulkhead != nil {
		run = wrap(run, e.bulkhead.Execute)
	}
	if e.limiter != nil {
		run = wrap(run, e.limiter.Execute)
	}
	return run(ctx)
}

func wrap(inner func(context.Context) error, guard func(context.Context, func(context.Context) error) error) func(context.Context) error {
	return func(ctx context.Context) error {
		return guard(ctx, inner)
	}
}

// Do runs fn through e and returns its value. A nil Executor runs fn
// directly.
func Do[T any](ctx context.Context, e *Executor, fn func(context.Context) (T, error)) (T, error) {
	if e == nil {
		return fn(ctx)
	}
	var out T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
