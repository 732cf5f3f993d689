package resilience

import (
	"context"
	"errors"
	"time"
)

// Timeout bounds a single attempt.
type Timeout struct {
	d time.Duration
}

// NewTimeout creates a Timeout. A non-positive d defaults to 10s.
func NewTimeout(d time.Duration) *Timeout {
	if d <= 0 {
		d = 10 * time.Second
	}
	return &Timeout{d: d}
}

// Duration returns the per-attempt limit.
func (t *Timeout) Duration() time.Duration {
	return t.d
}

// Execute runs op with a derived deadline. An op that ignores its context
// is abandoned when the deadline passes and its result discarded.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
			return ErrTimeout
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}
