// Package resilience guards calls to external services.
//
// Each guard wraps a func(context.Context) error:
//
//   - RateLimiter keeps calls inside an upstream quota.
//   - Bulkhead caps concurrent work.
//   - CircuitBreaker fails fast after repeated upstream failures.
//   - Retry re-runs transient failures with backoff.
//   - Timeout bounds one attempt.
//
// Executor composes them, and NewPolicyExecutor builds one from a
// configuration Policy. Errors wrapped with Permanent are neither retried
// nor counted by the breaker:
//
//	exec := resilience.NewPolicyExecutor("qweather", resilience.DefaultPolicy(), resilience.Hooks{})
//	city, err := resilience.Do(ctx, exec, func(ctx context.Context) (City, error) {
//	    return client.lookup(ctx, name)
//	})
package resilience
