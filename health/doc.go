// Package health reports whether the capability service can do useful
// work.
//
// Checks are registered on an Aggregator, which runs them concurrently
// under one deadline and reports the worst status. Ready-made checks cover
// the cache pool hit rate, the capability registry, upstream circuit
// breakers, pingable stores and Go runtime limits.
//
//	agg := health.NewAggregator(health.AggregatorConfig{})
//	agg.Register(health.CacheChecker{Pool: pool, MinHitRate: 0.2, MinLookups: 100})
//	agg.Register(health.RegistryChecker{Registry: registry})
//	health.Register(mux, agg)
//
// Degraded components keep /readyz at 200; only an unhealthy check turns
// it into 503.
package health
