package observe

import (
	"context"
	"errors"
	"io"
	"testing"
)

// BenchmarkLogger_Info measures one JSON entry with call fields.
func BenchmarkLogger_Info(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard).WithCall(CallMeta{Name: "get_weather_cached", SessionID: "s1"})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info(ctx, "weather fetched", F("location", "Hangzhou"), F("cached", true))
	}
}

// BenchmarkLogger_Disabled measures an entry below the level.
func BenchmarkLogger_Disabled(b *testing.B) {
	logger := NewLoggerWithWriter("error", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug(ctx, "cache hit", F("cache.key", "city_hangzhou"))
	}
}

// BenchmarkMiddleware_Wrap measures the per-call overhead with no-op
// tracer and metrics.
func BenchmarkMiddleware_Wrap(b *testing.B) {
	mw := NewMiddleware(nil, nil, NewLoggerWithWriter("info", io.Discard))
	fn := mw.Wrap(func(context.Context, CallMeta, any) (any, error) { return nil, nil })
	meta := CallMeta{Name: "get_time"}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = fn(ctx, meta, nil)
	}
}

// BenchmarkMiddleware_Wrap_Error measures the failure path.
func BenchmarkMiddleware_Wrap_Error(b *testing.B) {
	boom := errors.New("boom")
	mw := NewMiddleware(nil, nil, NewLoggerWithWriter("info", io.Discard))
	fn := mw.Wrap(func(context.Context, CallMeta, any) (any, error) { return nil, boom })
	meta := CallMeta{Name: "get_time"}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = fn(ctx, meta, nil)
	}
}
