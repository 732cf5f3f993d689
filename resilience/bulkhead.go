package resilience

import (
	"context"
	"sync/atomic"
	"time"
)

// Bulkhead caps the number of operations running at once.
type Bulkhead struct {
	sem      chan struct{}
	maxWait  time.Duration
	rejected atomic.Int64
}

// NewBulkhead creates a bulkhead with limit slots. A caller waits up to
// maxWait for a slot; zero rejects immediately. A non-positive limit
// defaults to 16.
func NewBulkhead(limit int, maxWait time.Duration) *Bulkhead {
	if limit <= 0 {
		limit = 16
	}
	return &Bulkhead{sem: make(chan struct{}, limit), maxWait: maxWait}
}

// Acquire takes a slot. Every successful Acquire must be paired with
// Release.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	default:
	}
	if b.maxWait <= 0 {
		b.rejected.Add(1)
		return ErrBulkheadFull
	}

	timer := time.NewTimer(b.maxWait)
	defer timer.Stop()
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-timer.C:
		b.rejected.Add(1)
		return ErrBulkheadFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot.
func (b *Bulkhead) Release() {
	select {
	case <-b.sem:
	default:
	}
}

// Execute runs op inside a slot.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()
	return op(ctx)
}

// InUse returns the number of occupied slots.
func (b *Bulkhead) InUse() int { return len(b.sem) }

// Limit returns the slot count.
func (b *Bulkhead) Limit() int { return cap(b.sem) }

// Rejected returns how many callers were turned away.
func (b *Bulkhead) Rejected() int64 { return b.rejected.Load() }
