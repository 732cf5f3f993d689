package health

import (
	"context"
	"fmt"
	"runtime"

	"github.com/jonwraymond/toolhub/cache"
	"github.com/jonwraymond/toolhub/dispatch"
	"github.com/jonwraymond/toolhub/resilience"
)

// CacheChecker reports the cache pool. A hit rate below MinHitRate is
// degraded once at least MinLookups lookups have been counted, and a pool
// at capacity is reported in details only.
type CacheChecker struct {
	Pool       *cache.Pool
	MinHitRate float64
	MinLookups uint64
}

func (c CacheChecker) Name() string { return "cache" }

func (c CacheChecker) Check(context.Context) Result {
	s := c.Pool.Stats()

	var hits, lookups uint64
	details := map[string]any{
		"entries":     s.TotalEntries,
		"max_entries": s.MaxEntries,
		"evictions":   s.Evictions,
	}
	for _, ns := range s.Namespaces {
		hits += ns.Hits
		lookups += ns.Hits + ns.Misses
		details[ns.Name+"_hit_rate"] = ns.HitRate
	}

	if lookups == 0 || lookups < c.MinLookups {
		return Healthy("warming up").WithDetails(details)
	}
	rate := float64(hits) / float64(lookups)
	details["hit_rate"] = rate
	if rate < c.MinHitRate {
		return Degraded(fmt.Sprintf("hit rate %.2f%% below %.2f%%", rate*100, c.MinHitRate*100)).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("hit rate %.2f%%", rate*100)).WithDetails(details)
}

// RegistryChecker is unhealthy until the capability registry has been
// sealed with at least one capability.
type RegistryChecker struct {
	Registry *dispatch.Registry
}

func (c RegistryChecker) Name() string { return "capabilities" }

func (c RegistryChecker) Check(context.Context) Result {
	switch {
	case c.Registry == nil:
		return Unhealthy("no registry", nil)
	case !c.Registry.Sealed():
		return Unhealthy("registry not sealed", nil)
	case c.Registry.Len() == 0:
		return Unhealthy("no capabilities registered", nil)
	}
	return Healthy(fmt.Sprintf("%d capabilities", c.Registry.Len())).
		WithDetails(map[string]any{"capabilities": c.Registry.Names()})
}

// BreakerChecker reports an upstream circuit breaker. An open or probing
// breaker is degraded: cached data can still be served.
type BreakerChecker struct {
	Breaker *resilience.CircuitBreaker
	Label   string
}

func (c BreakerChecker) Name() string { return "upstream_" + c.Label }

func (c BreakerChecker) Check(context.Context) Result {
	m := c.Breaker.Metrics()
	details := map[string]any{"state": m.State, "failures": m.Failures, "opened": m.Opened}
	if m.State != resilience.StateClosed.String() {
		return Degraded("circuit " + m.State).WithDetails(details)
	}
	return Healthy("circuit closed").WithDetails(details)
}

// Pinger is a dependency that can be pinged.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker is unhealthy when Ping fails.
type PingChecker struct {
	Label  string
	Target Pinger
}

func (c PingChecker) Name() string { return c.Label }

func (c PingChecker) Check(ctx context.Context) Result {
	if err := c.Target.Ping(ctx); err != nil {
		return Unhealthy("ping failed", err)
	}
	return Healthy("reachable")
}

// RuntimeChecker degrades when the heap or goroutine count passes a
// limit. Zero limits are not enforced.
type RuntimeChecker struct {
	MaxHeapBytes  uint64
	MaxGoroutines int
}

func (c RuntimeChecker) Name() string { return "runtime" }

func (c RuntimeChecker) Check(context.Context) Result {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	goroutines := runtime.NumGoroutine()

	details := map[string]any{
		"heap_alloc_bytes": ms.HeapAlloc,
		"goroutines":       goroutines,
		"num_gc":           ms.NumGC,
	}
	if c.MaxHeapBytes > 0 && ms.HeapAlloc > c.MaxHeapBytes {
		return Degraded(fmt.Sprintf("heap %d bytes over limit %d", ms.HeapAlloc, c.MaxHeapBytes)).WithDetails(details)
	}
	if c.MaxGoroutines > 0 && goroutines > c.MaxGoroutines {
		return Degraded(fmt.Sprintf("%d goroutines over limit %d", goroutines, c.MaxGoroutines)).WithDetails(details)
	}
	return Healthy("ok").WithDetails(details)
}
