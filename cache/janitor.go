package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/toolhub/observe"
)

// DefaultJanitorInterval is used when NewJanitor gets a non-positive interval.
const DefaultJanitorInterval = 10 * time.Minute

// Janitor periodically removes expired entries from a Pool.
type Janitor struct {
	pool     *Pool
	interval time.Duration
	logger   observe.Logger

	mu      sync.Mutex
	running bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewJanitor creates a Janitor for pool.
func NewJanitor(pool *Pool, interval time.Duration, logger observe.Logger) *Janitor {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Janitor{
		pool:     pool,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins sweeping in the background. Calling Start twice, or after
// Stop, does nothing.
func (j *Janitor) Start(ctx context.Context) {
	j.mu.Lock()
	if j.running || j.stopped {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	go j.run(ctx)
}

// Stop halts the background sweep and waits for it to exit.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running || j.stopped {
		j.mu.Unlock()
		return
	}
	j.stopped = true
	j.mu.Unlock()

	close(j.stopCh)
	<-j.doneCh
}

// RunOnce performs a single sweep and returns the number of entries removed.
func (j *Janitor) RunOnce(ctx context.Context) int {
	return j.pool.ClearExpired(ctx)
}

func (j *Janitor) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Debug(ctx, "cache janitor started", observe.F("interval", j.interval.String()))
	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopCh:
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}
