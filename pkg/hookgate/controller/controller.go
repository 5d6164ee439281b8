// Package controller orchestrates the dispatch engine: registry discovery
// and router registration at startup, configuration-validity gating with a
// degraded fail-open mode, per-request bookkeeping, and the introspection
// surface the daemon exposes.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/hookgate/pkg/hookgate/audit"
	"github.com/randalmurphal/hookgate/pkg/hookgate/chain"
	"github.com/randalmurphal/hookgate/pkg/hookgate/config"
	hookerrors "github.com/randalmurphal/hookgate/pkg/hookgate/errors"
	"github.com/randalmurphal/hookgate/pkg/hookgate/hook"
	"github.com/randalmurphal/hookgate/pkg/hookgate/observability"
	"github.com/randalmurphal/hookgate/pkg/hookgate/project"
	"github.com/randalmurphal/hookgate/pkg/hookgate/registry"
	"github.com/randalmurphal/hookgate/pkg/hookgate/router"
)

// Options carries the controller's injected dependencies. Every field is
// optional; zero values mean "disabled" (no-op metrics, no audit log).
type Options struct {
	Logger  *slog.Logger
	Metrics observability.MetricsRecorder
	Spans   observability.SpanManager
	Audit   audit.Store
	Catalog registry.Catalog
}

// Controller owns chain routing plus the degraded-mode fallback. One
// Controller is constructed per process and passed by reference to the
// daemon; there is no ambient global state.
type Controller struct {
	opts   Options
	router *router.Router
	reg    *registry.Registry
	stats  *Stats

	degraded     bool
	configErrors []string
	registered   int
}

// New creates a controller. Call Init before processing events.
func New(opts Options) *Controller {
	if opts.Metrics == nil {
		opts.Metrics = observability.NoopMetrics{}
	}
	if opts.Spans == nil {
		opts.Spans = observability.NoopSpanManager{}
	}
	return &Controller{
		opts:  opts,
		stats: NewStats(),
	}
}

// Init validates configuration and wires discovery into the router.
//
// Validation errors (or a panicking validator, treated identically) place
// the controller in degraded mode: discovery and registration still run so
// the introspection endpoints keep working, but every subsequent request
// fails open with the recorded errors as context. Init itself never fails
// for configuration problems; only a broken workspace resolution surfaces
// as an error.
func (c *Controller) Init(cfg config.Config, workspaceRoot string) error {
	proj, err := project.Resolve(workspaceRoot)
	if err != nil {
		return fmt.Errorf("resolve project context: %w", err)
	}

	c.configErrors = validate(cfg)
	if len(c.configErrors) > 0 {
		c.degraded = true
		observability.LogDegraded(c.opts.Logger, c.configErrors)
	}

	c.router = router.New(c.opts.Logger)
	c.reg = registry.New(proj, c.opts.Logger)

	discovered := c.reg.Discover(c.opts.Catalog)
	c.registered = c.reg.RegisterAll(c.router, cfg)

	if c.opts.Logger != nil {
		c.opts.Logger.Info("controller initialised",
			slog.String("root", proj.Root),
			slog.Int("discovered", discovered),
			slog.Int("registered", c.registered),
			slog.Bool("degraded", c.degraded),
		)
	}
	return nil
}

// validate runs config.Validate, converting a panic inside the validator
// into an error string so initialisation always completes.
func validate(cfg config.Config) (errs []string) {
	defer func() {
		if r := recover(); r != nil {
			errs = []string{fmt.Sprintf("configuration validation crashed: %v", r)}
		}
	}()
	return config.Validate(cfg)
}

// Degraded reports whether the controller is in degraded mode.
func (c *Controller) Degraded() bool {
	return c.degraded
}

// ProcessEvent routes one event and returns the chain outcome.
//
// In degraded mode every request short-circuits to an allow whose context
// explains the state and repeats the recorded configuration errors
// verbatim. In normal mode a panic anywhere during routing converts to an
// allow tagged internal_error; the fail-open guarantee never becomes a
// hang or a crash.
func (c *Controller) ProcessEvent(ctx context.Context, kind hook.EventKind, payload hook.Payload) chain.Outcome {
	requestID := uuid.NewString()
	reqLogger := observability.EnrichLogger(c.opts.Logger, requestID, kind.String())
	observability.LogRequestStart(c.opts.Logger, requestID, kind.String())

	ctx, span := c.opts.Spans.StartRequestSpan(ctx, kind.String(), requestID)

	outcome := c.dispatch(ctx, kind, payload)

	c.record(ctx, reqLogger, requestID, kind, outcome)
	c.opts.Spans.EndSpanWithDecision(span, string(outcome.Result.Decision), nil)
	observability.LogRequestComplete(c.opts.Logger, requestID, kind.String(),
		string(outcome.Result.Decision), outcome.DurationMS)

	return outcome
}

func (c *Controller) dispatch(ctx context.Context, kind hook.EventKind, payload hook.Payload) (outcome chain.Outcome) {
	if c.degraded {
		msgs := make([]string, 0, len(c.configErrors)+1)
		msgs = append(msgs, "hookgate daemon is running in degraded mode; all events are allowed")
		msgs = append(msgs, c.configErrors...)
		c.opts.Metrics.RecordDegraded(ctx, kind.String())
		return chain.Outcome{Result: hook.Allow().WithContext(msgs...)}
	}

	defer func() {
		if r := recover(); r != nil {
			err := hookerrors.Request(fmt.Errorf("routing panic: %v", r), kind.String())
			observability.LogRequestError(c.opts.Logger, "", kind.String(), err)
			c.stats.RecordError()
			outcome = chain.Outcome{
				Result: hook.Allow().WithContext("internal_error: " + err.Error()),
			}
		}
	}()

	if c.router == nil {
		// Init was never called; behave like an empty router.
		return chain.Outcome{Result: hook.Allow()}
	}
	return c.router.Route(ctx, kind, payload)
}

// record updates statistics, metrics, and the audit log for one outcome.
// logger is the request-enriched logger.
func (c *Controller) record(ctx context.Context, logger *slog.Logger, requestID string, kind hook.EventKind, outcome chain.Outcome) {
	c.stats.RecordRequest(kind.String(), outcome.DurationMS)
	c.opts.Metrics.RecordRequest(ctx, kind.String(), string(outcome.Result.Decision),
		time.Duration(outcome.DurationMS*float64(time.Millisecond)))

	// Handler faults were already absorbed by the chain; they still count
	// against the error statistics and the handler-error instrument.
	for _, f := range outcome.Faults {
		c.stats.RecordError()
		c.opts.Metrics.RecordHandlerError(ctx, kind.String(), f.Handler)
	}

	if c.opts.Audit == nil {
		return
	}
	err := c.opts.Audit.Record(audit.Entry{
		ID:         requestID,
		Timestamp:  time.Now().UTC(),
		Event:      kind.String(),
		Decision:   string(outcome.Result.Decision),
		Handler:    outcome.Result.HandlerKey,
		DurationMS: outcome.DurationMS,
		Degraded:   c.degraded,
	})
	if err != nil && logger != nil {
		logger.Warn("audit record failed",
			slog.String("error", err.Error()),
		)
	}
}

// ProcessRequest routes an event named by its wire spelling and returns
// the event-kind-specific wire response.
func (c *Controller) ProcessRequest(ctx context.Context, kind string, payload hook.Payload) map[string]any {
	outcome := c.ProcessEvent(ctx, hook.KindFromString(kind), payload)
	return hook.Response(hook.KindFromString(kind), outcome.Result)
}

// Health describes the controller's state for the health endpoint.
type Health struct {
	Status        string         `json:"status"`
	ConfigErrors  []string       `json:"config_errors,omitempty"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Handlers      map[string]int `json:"handlers"`
	Requests      Snapshot       `json:"requests"`
}

// GetHealth returns the current health report.
func (c *Controller) GetHealth() Health {
	status := "healthy"
	if c.degraded {
		status = "degraded"
	}

	counts := map[string]int{}
	if c.router != nil {
		counts = c.router.HandlerCounts()
	}

	return Health{
		Status:        status,
		ConfigErrors:  c.configErrors,
		UptimeSeconds: c.stats.Uptime().Seconds(),
		Handlers:      counts,
		Requests:      c.stats.Snapshot(),
	}
}

// GetHandlers returns the discovered-handler introspection dump.
func (c *Controller) GetHandlers() map[string][]registry.Info {
	if c.reg == nil {
		return map[string][]registry.Info{}
	}
	return c.reg.Describe()
}
