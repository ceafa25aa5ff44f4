// Package observability instruments the orchestrator's pipeline stages
// (§4.5-§4.9) and the ingestion coordinator (§4.3) with metrics and
// distributed tracing, using OpenTelemetry as the vendor-neutral
// abstraction the way pkg/middleware/observability does for the
// teacher's flows. A NoopMetricsProvider/NoopTracerProvider pair is the
// zero-value default, so the core engine carries no observability-sink
// dependency at rest (§1 Non-goals: no bundled dashboards, only hooks).
package observability

import (
	"context"
	"time"
)

// MetricsProvider records counters, gauges and histograms for pipeline
// stages (ingestion throughput/failures, retrieval latency, generation
// token usage).
type MetricsProvider interface {
	Counter(ctx context.Context, name string, value int64, labels map[string]string)
	Gauge(ctx context.Context, name string, value float64, labels map[string]string)
	Histogram(ctx context.Context, name string, value float64, labels map[string]string)
	RecordDuration(ctx context.Context, name string, duration time.Duration, labels map[string]string)
}

// TracerProvider starts spans around a pipeline operation.
type TracerProvider interface {
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	Shutdown(ctx context.Context) error
}

// Span represents one traced operation (one retrieval call, one
// generation call, one file ingest).
type Span interface {
	End(err error)
	SetAttribute(key string, value any)
	AddEvent(name string, attrs map[string]any)
	SetStatus(code SpanStatus, description string)
}

// SpanStatus mirrors OpenTelemetry's status codes.
type SpanStatus int

const (
	SpanStatusUnset SpanStatus = iota
	SpanStatusOK
	SpanStatusError
)

// SpanOption configures span creation.
type SpanOption func(*spanConfig)

type spanConfig struct {
	attributes map[string]any
}

// WithAttributes sets initial attributes on the span.
func WithAttributes(attrs map[string]any) SpanOption {
	return func(cfg *spanConfig) { cfg.attributes = attrs }
}

// Labels is a convenience type for metric labels.
type Labels map[string]string
