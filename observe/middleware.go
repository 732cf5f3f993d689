package observe

import (
	"context"
	"time"
)

// ExecuteFunc is the signature Middleware wraps.
type ExecuteFunc func(ctx context.Context, meta CallMeta, input any) (any, error)

// Middleware wraps capability calls with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
//   - Ownership: input and output values pass through untouched.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components fall back to no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NoopTracer()
	}
	if metrics == nil {
		metrics = NoopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// Wrap returns fn instrumented with a span, call metrics and a completion log line.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, meta CallMeta, input any) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		result, err := fn(ctx, meta, input)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordCall(ctx, meta, duration, err)

		logger := m.logger.WithCall(meta)
		fields := []Field{F("duration_ms", float64(duration.Microseconds())/1000)}
		if err != nil {
			logger.Error(ctx, "capability call failed", append(fields, Err(err))...)
		} else {
			logger.Info(ctx, "capability call completed", fields...)
		}

		return result, err
	}
}

// MiddlewareFromObserver builds a Middleware from an Observer's providers.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
