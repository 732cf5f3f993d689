package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time          { return c.now }
func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func failing(context.Context) error { return errors.New("upstream 503") }
func ok(context.Context) error      { return nil }

func newTestBreaker(clock *manualClock, transitions *[]string) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "qweather",
		MaxFailures:  2,
		ResetTimeout: time.Minute,
		Now:          clock.Now,
		OnStateChange: func(name string, from, to State) {
			*transitions = append(*transitions, name+":"+from.String()+"->"+to.String())
		},
	})
}

func TestCircuitBreaker_Lifecycle(t *testing.T) {
	clock := &manualClock{now: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	if cb.State() != StateClosed {
		t.Fatalf("state after 1 failure = %v", cb.State())
	}
	_ = cb.Execute(ctx, failing)
	if cb.State() != StateOpen {
		t.Fatalf("state after 2 failures = %v", cb.State())
	}

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("open breaker let call through: err=%v called=%v", err, called)
	}

	clock.Advance(time.Minute)
	if cb.State() != StateHalfOpen {
		t.Fatalf("state after reset timeout = %v", cb.State())
	}
	if err := cb.Execute(ctx, ok); err != nil {
		t.Fatalf("trial call failed: %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("state after successful trial call = %v", cb.State())
	}

	want := []string{
		"qweather:closed->open",
		"qweather:open->half-open",
		"qweather:half-open->closed",
	}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition[%d] = %q, want %q", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_FailedTrialReopens(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	_ = cb.Execute(ctx, failing)
	clock.Advance(time.Minute)

	_ = cb.Execute(ctx, failing)
	if cb.State() != StateOpen {
		t.Fatalf("state after failed trial call = %v", cb.State())
	}
	if m := cb.Metrics(); m.Opened != 2 || m.State != "open" {
		t.Errorf("metrics = %+v", m)
	}
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	var transitions []string
	cb := newTestBreaker(&manualClock{now: time.Now()}, &transitions)
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	_ = cb.Execute(ctx, ok)
	_ = cb.Execute(ctx, failing)
	if cb.State() != StateClosed {
		t.Fatalf("non-consecutive failures opened the breaker")
	}
}

func TestCircuitBreaker_PermanentErrorsIgnored(t *testing.T) {
	var transitions []string
	cb := newTestBreaker(&manualClock{now: time.Now()}, &transitions)
	for range 5 {
		_ = cb.Execute(context.Background(), func(context.Context) error {
			return Permanent(errors.New("invalid key"))
		})
	}
	if cb.State() != StateClosed {
		t.Fatalf("permanent errors opened the breaker")
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	var transitions []string
	cb := newTestBreaker(&manualClock{now: time.Now()}, &transitions)
	_ = cb.Execute(context.Background(), failing)
	_ = cb.Execute(context.Background(), failing)

	cb.Reset()
	if cb.State() != StateClosed || cb.Metrics().Failures != 0 {
		t.Fatalf("Reset left %+v", cb.Metrics())
	}
}
