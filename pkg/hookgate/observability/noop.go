package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordRequest does nothing.
func (NoopMetrics) RecordRequest(_ context.Context, _, _ string, _ time.Duration) {}

// RecordHandlerError does nothing.
func (NoopMetrics) RecordHandlerError(_ context.Context, _, _ string) {}

// RecordDegraded does nothing.
func (NoopMetrics) RecordDegraded(_ context.Context, _ string) {}

// NoopSpanManager is a SpanManager that does nothing.
// Use when tracing is disabled to avoid overhead.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

// noopSpan is a span that does nothing.
var noopSpan = noop.Span{}

// StartRequestSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartRequestSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithDecision does nothing.
func (NoopSpanManager) EndSpanWithDecision(_ trace.Span, _ string, _ error) {}
