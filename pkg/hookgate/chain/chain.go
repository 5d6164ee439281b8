// Package chain implements the short-circuiting dispatch algorithm: an
// ordered set of handlers for one event kind is evaluated in priority
// order until a terminal handler produces a binding decision, or the
// handlers are exhausted and the accumulated advisories ride out on a
// default allow.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	hookerrors "github.com/randalmurphal/hookgate/pkg/hookgate/errors"
	"github.com/randalmurphal/hookgate/pkg/hookgate/handler"
	"github.com/randalmurphal/hookgate/pkg/hookgate/hook"
	"github.com/randalmurphal/hookgate/pkg/hookgate/observability"
)

// Fault records one handler failure absorbed during evaluation.
type Fault struct {
	Handler string
	Err     error
}

// Outcome wraps a chain result with its measured execution time.
type Outcome struct {
	Result hook.Result

	// DurationMS is the wall-clock evaluation time in milliseconds.
	DurationMS float64

	// Evaluated counts handlers whose Matches was consulted.
	Evaluated int

	// Faults lists handlers that panicked during this evaluation. Each
	// fault was absorbed ("no decision"); they are surfaced so the caller
	// can count them.
	Faults []Fault
}

// Chain is the ordered handler set for one event kind. Add keeps the
// handlers sorted, so the chain is read-only during dispatch and Evaluate
// is safe for concurrent use once registration has finished.
type Chain struct {
	kind     hook.EventKind
	handlers []handler.Handler
	logger   *slog.Logger
}

// New creates an empty chain for the given event kind.
func New(kind hook.EventKind, logger *slog.Logger) *Chain {
	return &Chain{kind: kind, logger: logger}
}

// Kind returns the event kind this chain serves.
func (c *Chain) Kind() hook.EventKind {
	return c.kind
}

// Len returns the number of registered handlers.
func (c *Chain) Len() int {
	return len(c.handlers)
}

// Handlers returns the handlers in evaluation order.
func (c *Chain) Handlers() []handler.Handler {
	out := make([]handler.Handler, len(c.handlers))
	copy(out, c.handlers)
	return out
}

// Add inserts a handler, keeping the chain ordered by priority ascending
// with insertion order as the tiebreak for equal priorities. Priority
// overrides must be applied before Add; once dispatch starts the chain
// must not be mutated. Duplicate priorities are common and fine; they are
// noted at debug level only.
func (c *Chain) Add(h handler.Handler) {
	if c.logger != nil {
		for _, prev := range c.handlers {
			if prev.Priority() == h.Priority() {
				c.logger.Debug("duplicate handler priority",
					slog.String("event", c.kind.String()),
					slog.Int("priority", h.Priority()),
					slog.String("handler", h.Name()),
					slog.String("conflicts_with", prev.Name()),
				)
				break
			}
		}
	}
	c.handlers = append(c.handlers, h)
	sort.SliceStable(c.handlers, func(i, j int) bool {
		return c.handlers[i].Priority() < c.handlers[j].Priority()
	})
}

// Evaluate runs the chain over a payload and produces exactly one result.
//
// For each handler in order: a false Matches skips it; a binding deny/ask
// from a terminal handler stops the chain and becomes the chain result,
// carrying the advisory context accumulated so far; anything else
// contributes its context and the scan continues. An exhausted chain
// returns allow with the accumulated context (possibly the silent allow).
//
// A panic inside Matches or Handle is confined to that handler: it is
// logged and treated as "no decision", so one malfunctioning handler never
// aborts event processing.
func (c *Chain) Evaluate(ctx context.Context, payload hook.Payload) Outcome {
	elapsed := observability.TimedOperation()

	var advisories []string
	var faults []Fault
	evaluated := 0

	for _, h := range c.handlers {
		evaluated++

		matched, res, err := c.invoke(ctx, h, payload)
		if err != nil {
			if c.logger != nil {
				c.logger.Error("handler failed",
					slog.String("event", c.kind.String()),
					slog.String("handler", h.Name()),
					slog.String("error", err.Error()),
				)
			}
			faults = append(faults, Fault{Handler: h.Name(), Err: err})
			continue
		}
		if !matched {
			continue
		}

		if h.Terminal() && res.Decision.Binding() {
			res.HandlerKey = handler.ConfigKey(h.Name())
			// Advisories gathered before the binding decision still
			// reach the caller.
			if len(advisories) > 0 {
				merged := make([]string, 0, len(advisories)+len(res.Context))
				merged = append(merged, advisories...)
				merged = append(merged, res.Context...)
				res.Context = merged
			}
			return Outcome{
				Result:     res,
				DurationMS: elapsed(),
				Evaluated:  evaluated,
				Faults:     faults,
			}
		}

		advisories = append(advisories, res.Context...)
	}

	return Outcome{
		Result:     hook.Allow().WithContext(advisories...),
		DurationMS: elapsed(),
		Evaluated:  evaluated,
		Faults:     faults,
	}
}

// invoke calls one handler's Matches/Handle pair, converting panics into
// handler-category errors so the chain can continue.
func (c *Chain) invoke(ctx context.Context, h handler.Handler, payload hook.Payload) (matched bool, res hook.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = hookerrors.Handler(fmt.Errorf("handler panic: %v", r), h.Name())
		}
	}()

	if !h.Matches(payload) {
		return false, hook.Result{}, nil
	}
	return true, h.Handle(ctx, payload), nil
}
