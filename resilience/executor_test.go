package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecutor_Empty(t *testing.T) {
	calls := 0
	err := NewExecutor().Execute(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

// Retries sit inside the breaker, so one exhausted retry loop counts as a
// single breaker failure.
func TestExecutor_RetryInsideBreaker(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour})
	e := NewExecutor(
		WithCircuitBreaker(cb),
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})),
	)

	attempts := 0
	_ = e.Execute(context.Background(), func(context.Context) error {
		attempts++
		return errors.New("503")
	})
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if cb.State() != StateClosed {
		t.Errorf("breaker state = %v after one logical failure", cb.State())
	}
	if e.Breaker() != cb {
		t.Error("Breaker() does not return the configured breaker")
	}
}

// Each attempt gets its own deadline.
func TestExecutor_TimeoutPerAttempt(t *testing.T) {
	e := NewExecutor(
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond})),
		WithTimeout(10*time.Millisecond),
	)

	attempts := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v, want success on second attempt", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestExecutor_RateLimitedBeforeOperation(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	e := NewExecutor(WithRateLimiter(NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1, Now: clock.Now})))

	_ = e.Execute(context.Background(), ok)
	if err := e.Execute(context.Background(), ok); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestDo(t *testing.T) {
	e := NewExecutor(WithRetry(NewRetry(RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond})))

	attempts := 0
	got, err := Do(context.Background(), e, func(context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "partial", errors.New("reset by peer")
		}
		return "Beijing", nil
	})
	if err != nil || got != "Beijing" {
		t.Fatalf("Do = (%q, %v)", got, err)
	}

	got, err = Do(context.Background(), nil, func(context.Context) (string, error) { return "direct", nil })
	if err != nil || got != "direct" {
		t.Fatalf("Do(nil executor) = (%q, %v)", got, err)
	}
}

func TestDo_ErrorReturnsZero(t *testing.T) {
	n, err := Do(context.Background(), NewExecutor(), func(context.Context) (int, error) {
		return 7, Permanent(errors.New("bad"))
	})
	if err == nil || n != 0 {
		t.Fatalf("Do = (%d, %v), want zero value and error", n, err)
	}
}
