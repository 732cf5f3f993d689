package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newManualMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumOf(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	if m == nil {
		return 0
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordCall(t *testing.T) {
	reader, mp := newManualMeter(t)
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	meta := CallMeta{Name: "get_time", Convention: "argument-only"}
	m.RecordCall(ctx, meta, 10*time.Millisecond, nil)
	m.RecordCall(ctx, meta, 20*time.Millisecond, errors.New("boom"))

	rm := collect(t, reader)
	if got := sumOf(t, findMetric(rm, "capability.call.total")); got != 2 {
		t.Errorf("total = %d, want 2", got)
	}
	if got := sumOf(t, findMetric(rm, "capability.call.errors")); got != 1 {
		t.Errorf("errors = %d, want 1", got)
	}

	hist := findMetric(rm, "capability.call.duration_ms")
	if hist == nil {
		t.Fatal("duration histogram not found")
	}
	h, ok := hist.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", hist.Data)
	}
	if h.DataPoints[0].Count != 2 {
		t.Errorf("histogram count = %d, want 2", h.DataPoints[0].Count)
	}
}

func TestCacheMetrics(t *testing.T) {
	reader, mp := newManualMeter(t)
	cm, err := NewCacheMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewCacheMetrics: %v", err)
	}

	ctx := context.Background()
	cm.Hit(ctx, "weather")
	cm.Hit(ctx, "city")
	cm.Miss(ctx, "weather")
	cm.Evicted(ctx, 3)
	cm.Evicted(ctx, 0)

	rm := collect(t, reader)
	if got := sumOf(t, findMetric(rm, "cache.hits")); got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
	if got := sumOf(t, findMetric(rm, "cache.misses")); got != 1 {
		t.Errorf("misses = %d, want 1", got)
	}
	if got := sumOf(t, findMetric(rm, "cache.evictions")); got != 3 {
		t.Errorf("evictions = %d, want 3", got)
	}
}

func TestNoopMetrics(t *testing.T) {
	NoopMetrics().RecordCall(context.Background(), CallMeta{Name: "x"}, time.Second, errors.New("e"))
}
