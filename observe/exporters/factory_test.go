package exporters

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestNewTracingExporter_Unknown(t *testing.T) {
	_, err := NewTracingExporter(context.Background(), "zipkin", nil)
	if !errors.Is(err, ErrUnknownExporter) {
		t.Fatalf("expected ErrUnknownExporter, got %v", err)
	}
}

func TestNewTracingExporter_Stdout(t *testing.T) {
	var buf bytes.Buffer
	exp, err := NewTracingExporter(context.Background(), "stdout", &buf)
	if err != nil {
		t.Fatalf("stdout exporter: %v", err)
	}
	if exp == nil {
		t.Fatal("expected non-nil exporter")
	}
}

func TestNewTracingExporter_OTLPNeedsEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")

	_, err := NewTracingExporter(context.Background(), "otlp", nil)
	if !errors.Is(err, ErrEndpointNotConfigured) {
		t.Fatalf("expected ErrEndpointNotConfigured, got %v", err)
	}
}

func TestNewTracingExporter_JaegerNeedsEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_JAEGER_ENDPOINT", "")

	_, err := NewTracingExporter(context.Background(), "jaeger", nil)
	if !errors.Is(err, ErrEndpointNotConfigured) {
		t.Fatalf("expected ErrEndpointNotConfigured, got %v", err)
	}
}

func TestNewMetricsReader(t *testing.T) {
	tests := []struct {
		name    string
		wantErr error
	}{
		{name: "stdout"},
		{name: "none"},
		{name: ""},
		{name: "graphite", wantErr: ErrUnknownExporter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewMetricsReader(context.Background(), tt.name, &bytes.Buffer{})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if reader == nil {
				t.Fatal("expected non-nil reader")
			}
		})
	}
}

func TestNewMetricsReader_OTLPNeedsEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	_, err := NewMetricsReader(context.Background(), "otlp", nil)
	if !errors.Is(err, ErrEndpointNotConfigured) {
		t.Fatalf("expected ErrEndpointNotConfigured, got %v", err)
	}
}
