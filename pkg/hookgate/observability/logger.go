// Package observability provides structured logging, metrics, and tracing
// for the dispatch engine.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled;
// every helper tolerates a nil logger.
package observability

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevelEnv is the environment variable overriding the configured log
// level.
const LogLevelEnv = "HOOKGATE_LOG_LEVEL"

// NewLogger builds the daemon's slog logger writing to stderr at the given
// level name (debug/info/warn/error). The HOOKGATE_LOG_LEVEL environment
// variable takes precedence over the argument.
func NewLogger(level string) *slog.Logger {
	if env := os.Getenv(LogLevelEnv); env != "" {
		level = env
	}

	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// EnrichLogger adds request context to a logger.
// Returns a new logger with request_id and event fields.
func EnrichLogger(logger *slog.Logger, requestID, event string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("request_id", requestID),
		slog.String("event", event),
	)
}

// LogRequestStart logs the arrival of a dispatch request.
func LogRequestStart(logger *slog.Logger, requestID, event string) {
	if logger == nil {
		return
	}
	logger.Debug("request received",
		slog.String("request_id", requestID),
		slog.String("event", event),
	)
}

// LogRequestComplete logs a finished dispatch with its decision.
func LogRequestComplete(logger *slog.Logger, requestID, event, decision string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("request completed",
		slog.String("request_id", requestID),
		slog.String("event", event),
		slog.String("decision", decision),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogRequestError logs a request that failed open.
func LogRequestError(logger *slog.Logger, requestID, event string, err error) {
	if logger == nil {
		return
	}
	logger.Error("request failed open",
		slog.String("request_id", requestID),
		slog.String("event", event),
		slog.String("error", err.Error()),
	)
}

// LogDegraded logs entry into degraded mode with the validation errors.
func LogDegraded(logger *slog.Logger, errors []string) {
	if logger == nil {
		return
	}
	logger.Warn("entering degraded mode",
		slog.Int("config_errors", len(errors)),
		slog.Any("errors", errors),
	)
}

// LogShutdown logs a daemon shutdown with its trigger.
func LogShutdown(logger *slog.Logger, trigger string) {
	if logger == nil {
		return
	}
	logger.Info("shutting down",
		slog.String("trigger", trigger),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in
// fractional milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000.0
	}
}
