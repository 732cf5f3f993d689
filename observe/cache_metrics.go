package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CacheMetrics counts cache pool lookups and evictions.
// It satisfies cache.Recorder.
type CacheMetrics struct {
	hits      metric.Int64Counter
	misses    metric.Int64Counter
	evictions metric.Int64Counter
}

// NewCacheMetrics creates the cache instruments on meter.
func NewCacheMetrics(meter metric.Meter) (*CacheMetrics, error) {
	hits, err := meter.Int64Counter(
		"cache.hits",
		metric.WithDescription("Cache lookups served from memory"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"cache.misses",
		metric.WithDescription("Cache lookups that found nothing usable"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter(
		"cache.evictions",
		metric.WithDescription("Entries removed by LRU eviction"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &CacheMetrics{hits: hits, misses: misses, evictions: evictions}, nil
}

// Hit records a lookup served from namespace.
func (m *CacheMetrics) Hit(ctx context.Context, namespace string) {
	m.hits.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.namespace", namespace)))
}

// Miss records a lookup in namespace that found nothing.
func (m *CacheMetrics) Miss(ctx context.Context, namespace string) {
	m.misses.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.namespace", namespace)))
}

// Evicted records n entries removed by eviction.
func (m *CacheMetrics) Evicted(ctx context.Context, n int) {
	if n <= 0 {
		return
	}
	m.evictions.Add(ctx, int64(n))
}
