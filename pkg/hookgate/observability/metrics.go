package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records dispatch metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordRequest records one dispatched event with its decision and
	// latency.
	RecordRequest(ctx context.Context, event, decision string, duration time.Duration)

	// RecordHandlerError records a handler fault absorbed by the chain.
	RecordHandlerError(ctx context.Context, event, handler string)

	// RecordDegraded records a request answered in degraded mode.
	RecordDegraded(ctx context.Context, event string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	requests       metric.Int64Counter
	requestLatency metric.Float64Histogram
	handlerErrors  metric.Int64Counter
	degraded       metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("hookgate")

	requests, err := meter.Int64Counter("hookgate.requests",
		metric.WithDescription("Number of hook events dispatched"),
	)
	if err != nil {
		return nil, err
	}

	requestLatency, err := meter.Float64Histogram("hookgate.request.latency_ms",
		metric.WithDescription("Dispatch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	handlerErrors, err := meter.Int64Counter("hookgate.handler.errors",
		metric.WithDescription("Number of handler faults absorbed by chains"),
	)
	if err != nil {
		return nil, err
	}

	degraded, err := meter.Int64Counter("hookgate.degraded.requests",
		metric.WithDescription("Number of requests answered in degraded mode"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		requests:       requests,
		requestLatency: requestLatency,
		handlerErrors:  handlerErrors,
		degraded:       degraded,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder and logs the
// failure.
func NewMetricsRecorder(logger *slog.Logger) MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		if logger != nil {
			logger.Warn("metrics disabled",
				slog.String("error", err.Error()),
			)
		}
		return NoopMetrics{}
	}
	return m
}

// RecordRequest records one dispatched event.
func (m *otelMetrics) RecordRequest(ctx context.Context, event, decision string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("event", event),
		attribute.String("decision", decision),
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.requestLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordHandlerError records a handler fault.
func (m *otelMetrics) RecordHandlerError(ctx context.Context, event, handler string) {
	m.handlerErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("handler", handler),
	))
}

// RecordDegraded records a degraded-mode response.
func (m *otelMetrics) RecordDegraded(ctx context.Context, event string) {
	m.degraded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
	))
}
