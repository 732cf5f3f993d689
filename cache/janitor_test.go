package cache

import (
	"context"
	"testing"
	"time"
)

func TestJanitor_RunOnce(t *testing.T) {
	ctx := context.Background()
	p, clock := newTestPool(t, testConfig(10))
	j := NewJanitor(p, time.Minute, nil)

	p.Put(ctx, "test", "a", 1)
	p.Put(ctx, "test", "b", 2)
	if n := j.RunOnce(ctx); n != 0 {
		t.Errorf("RunOnce on fresh entries removed %d", n)
	}

	clock.Advance(2 * time.Minute)
	if n := j.RunOnce(ctx); n != 2 {
		t.Errorf("RunOnce removed %d, want 2", n)
	}
	if p.Len() != 0 {
		t.Errorf("Len() = %d after sweep", p.Len())
	}
}

func TestJanitor_StartStop(t *testing.T) {
	p, clock := newTestPool(t, testConfig(10))
	j := NewJanitor(p, 5*time.Millisecond, nil)

	p.Put(context.Background(), "test", "a", 1)
	clock.Advance(time.Hour)

	j.Start(context.Background())
	j.Start(context.Background()) // no-op

	deadline := time.Now().Add(2 * time.Second)
	for p.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	j.Stop()
	j.Stop() // idempotent

	if p.Len() != 0 {
		t.Error("janitor did not sweep the expired entry")
	}
}

func TestJanitor_StopsOnContextCancel(t *testing.T) {
	p, _ := newTestPool(t, testConfig(10))
	j := NewJanitor(p, 0, nil)
	if j.interval != DefaultJanitorInterval {
		t.Errorf("interval = %v, want default", j.interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	j.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		j.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after context cancellation")
	}
}
