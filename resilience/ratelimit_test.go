package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	clock := &manualClock{now: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(RateLimiterConfig{Rate: 2, Burst: 3, Now: clock.Now})

	for i := range 3 {
		if !rl.Allow() {
			t.Fatalf("call %d rejected inside burst", i)
		}
	}
	if rl.Allow() {
		t.Fatal("call beyond burst allowed")
	}

	clock.Advance(500 * time.Millisecond)
	if !rl.Allow() {
		t.Fatal("token not refilled after 1/rate seconds")
	}

	clock.Advance(time.Hour)
	if got := rl.Tokens(); got != 3 {
		t.Errorf("Tokens() = %v, want capped at burst 3", got)
	}
}

func TestRateLimiter_ExecuteRejectsWithoutWait(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1, Now: clock.Now})
	ctx := context.Background()

	if err := rl.Execute(ctx, ok); err != nil {
		t.Fatalf("first call: %v", err)
	}
	called := false
	err := rl.Execute(ctx, func(context.Context) error { called = true; return nil })
	if !errors.Is(err, ErrRateLimited) || called {
		t.Fatalf("err = %v called = %v, want ErrRateLimited", err, called)
	}
}

func TestRateLimiter_WaitForToken(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 100, Burst: 1, MaxWait: time.Second})
	ctx := context.Background()

	if err := rl.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Wait blocked far longer than one token interval")
	}
}

func TestRateLimiter_WaitRespectsContext(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.1, Burst: 1, MaxWait: time.Minute})
	_ = rl.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
}
