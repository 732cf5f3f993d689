package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// AggregatorConfig configures Aggregator.
type AggregatorConfig struct {
	// Timeout bounds one CheckAll run. Default: 5s
	Timeout time.Duration

	// Concurrency caps checks running at once. Zero runs all in parallel.
	Concurrency int
}

// NamedResult pairs a result with its check name.
type NamedResult struct {
	Name string
	Result
}

// Report is the outcome of CheckAll.
type Report struct {
	Status Status
	Checks []NamedResult
}

// Aggregator runs registered checks together.
type Aggregator struct {
	config AggregatorConfig

	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string
}

// NewAggregator creates an empty aggregator.
func NewAggregator(config AggregatorConfig) *Aggregator {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	return &Aggregator{config: config, checkers: make(map[string]Checker)}
}

// Register adds c under c.Name(), replacing any checker with that name.
func (a *Aggregator) Register(c Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.checkers[c.Name()]; !ok {
		a.order = append(a.order, c.Name())
	}
	a.checkers[c.Name()] = c
}

// Names returns check names in registration order.
func (a *Aggregator) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.order...)
}

// Check runs one named check.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	c, ok := a.checkers[name]
	a.mu.RUnlock()
	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return run(ctx, c), nil
}

// CheckAll runs every check and returns results in registration order.
// The report status is the worst individual status.
func (a *Aggregator) CheckAll(ctx context.Context) Report {
	a.mu.RLock()
	checkers := make([]Checker, 0, len(a.order))
	for _, name := range a.order {
		checkers = append(checkers, a.checkers[name])
	}
	a.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	results := make([]NamedResult, len(checkers))
	var g errgroup.Group
	if a.config.Concurrency > 0 {
		g.SetLimit(a.config.Concurrency)
	}
	for i, c := range checkers {
		g.Go(func() error {
			results[i] = NamedResult{Name: c.Name(), Result: run(ctx, c)}
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Status: StatusHealthy, Checks: results}
	for _, r := range results {
		report.Status = report.Status.Worst(r.Status)
	}
	return report
}

// run executes c, abandoning it if ctx ends first.
func run(ctx context.Context, c Checker) Result {
	start := time.Now()
	ch := make(chan Result, 1)
	go func() {
		ch <- c.Check(ctx)
	}()

	var r Result
	select {
	case r = <-ch:
	case <-ctx.Done():
		r = Unhealthy("check timed out", ErrCheckTimeout)
	}
	r.Duration = time.Since(start)
	if r.Timestamp.IsZero() {
		r.Timestamp = start
	}
	return r
}
