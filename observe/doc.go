// Package observe provides observability primitives for capability calls
// and the cache pool.
//
// It is a pure instrumentation library: a JSON structured Logger, a Tracer
// that opens one span per capability call, call and cache Metrics on
// OpenTelemetry instruments, and a Middleware tying the three together.
// Exporter selection lives in the exporters subpackage.
package observe
