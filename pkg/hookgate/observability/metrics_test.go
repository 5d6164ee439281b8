package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest creates a test meter provider and returns a function to collect metrics.
func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	// Save the original provider
	originalProvider := otel.GetMeterProvider()

	// Set test provider
	otel.SetMeterProvider(provider)

	// Return cleanup function
	cleanup := func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}

	return reader, cleanup
}

// collectMetrics collects all metrics from the reader.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)
	return &rm
}

// findMetric finds a metric by name in the collected data.
func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestRecordRequest(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	// Create a fresh metrics instance using the test provider
	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("records request count", func(t *testing.T) {
		m.RecordRequest(ctx, "PreToolUse", "deny", 5*time.Millisecond)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "hookgate.requests")
		require.NotNil(t, metric)

		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok, "Expected Sum type")
		require.NotEmpty(t, sum.DataPoints)

		// Find the datapoint for our event/decision pair
		found := false
		for _, dp := range sum.DataPoints {
			event, decision := "", ""
			for _, attr := range dp.Attributes.ToSlice() {
				switch attr.Key {
				case "event":
					event = attr.Value.AsString()
				case "decision":
					decision = attr.Value.AsString()
				}
			}
			if event == "PreToolUse" && decision == "deny" {
				found = true
				assert.GreaterOrEqual(t, dp.Value, int64(1))
			}
		}
		assert.True(t, found, "Expected to find datapoint for PreToolUse/deny")
	})

	t.Run("records latency", func(t *testing.T) {
		m.RecordRequest(ctx, "Stop", "allow", 12*time.Millisecond)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "hookgate.request.latency_ms")
		require.NotNil(t, metric)

		hist, ok := metric.Data.(metricdata.Histogram[float64])
		require.True(t, ok, "Expected Histogram type")
		require.NotEmpty(t, hist.DataPoints)
	})
}

func TestRecordHandlerError(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordHandlerError(context.Background(), "PreToolUse", "BashGuard")

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "hookgate.handler.errors")
	require.NotNil(t, metric)

	sum, ok := metric.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")
	require.NotEmpty(t, sum.DataPoints)

	found := false
	for _, dp := range sum.DataPoints {
		for _, attr := range dp.Attributes.ToSlice() {
			if attr.Key == "handler" && attr.Value.AsString() == "BashGuard" {
				found = true
				assert.GreaterOrEqual(t, dp.Value, int64(1))
			}
		}
	}
	assert.True(t, found, "Expected to find datapoint for handler=BashGuard")
}

func TestRecordDegraded(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordDegraded(context.Background(), "SessionStart")

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "hookgate.degraded.requests")
	require.NotNil(t, metric)

	sum, ok := metric.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.NotEmpty(t, sum.DataPoints)
}

func TestOtelMetrics_AllMethods(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	require.NotNil(t, m)

	ctx := context.Background()

	// Call all methods to ensure they work
	m.RecordRequest(ctx, "PreToolUse", "allow", 2*time.Millisecond)
	m.RecordRequest(ctx, "PostToolUse", "deny", 8*time.Millisecond)
	m.RecordHandlerError(ctx, "PreToolUse", "flaky")
	m.RecordDegraded(ctx, "Stop")

	// Collect and verify all metrics exist
	rm := collectMetrics(t, reader)

	assert.NotNil(t, findMetric(rm, "hookgate.requests"))
	assert.NotNil(t, findMetric(rm, "hookgate.request.latency_ms"))
	assert.NotNil(t, findMetric(rm, "hookgate.handler.errors"))
	assert.NotNil(t, findMetric(rm, "hookgate.degraded.requests"))
}

func TestNewOtelMetrics_Creation(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	require.NotNil(t, m)

	// Verify all metric instruments were created
	assert.NotNil(t, m.requests)
	assert.NotNil(t, m.requestLatency)
	assert.NotNil(t, m.handlerErrors)
	assert.NotNil(t, m.degraded)
}

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}

	// All methods are safe no-ops.
	m.RecordRequest(context.Background(), "PreToolUse", "allow", time.Millisecond)
	m.RecordHandlerError(context.Background(), "PreToolUse", "x")
	m.RecordDegraded(context.Background(), "Stop")
}
