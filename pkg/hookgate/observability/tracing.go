package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the hookgate tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("hookgate")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartRequestSpan starts a span covering one dispatched request.
	StartRequestSpan(ctx context.Context, event, requestID string) (context.Context, trace.Span)

	// EndSpanWithDecision completes a request span, recording the
	// decision, or the error when the request failed open.
	EndSpanWithDecision(span trace.Span, decision string, err error)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function.
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartRequestSpan starts a span covering one dispatched request.
func (m *otelSpanManager) StartRequestSpan(ctx context.Context, event, requestID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "hookgate.request",
		trace.WithAttributes(
			attribute.String("event", event),
			attribute.String("request.id", requestID),
		),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// EndSpanWithDecision completes a request span.
func (m *otelSpanManager) EndSpanWithDecision(span trace.Span, decision string, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.String("decision", decision))
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
