package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CallMeta describes one capability invocation for telemetry purposes.
type CallMeta struct {
	Name       string // capability name (required)
	Convention string // calling convention tag (optional)
	SessionID  string // owning session (optional)
}

// SpanName returns the deterministic span name: capability.call.<name>.
func (m CallMeta) SpanName() string {
	return "capability.call." + m.Name
}

func (m CallMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("call.name", m.Name)}
	if m.Convention != "" {
		attrs = append(attrs, attribute.String("call.convention", m.Convention))
	}
	if m.SessionID != "" {
		attrs = append(attrs, attribute.String("session.id", m.SessionID))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with per-call span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("call.error", false))
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("call.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

// NoopTracer returns a Tracer that records nothing.
func NoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}

// MarkState records a dispatch state transition on the span carried by ctx.
func MarkState(ctx context.Context, state string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent("call.state", trace.WithAttributes(attribute.String("state", state)))
	span.SetAttributes(attribute.String("call.state", state))
}
