// Package router owns one handler chain per event kind and provides the
// single dispatch entry point for the engine.
package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/hookgate/pkg/hookgate/chain"
	"github.com/randalmurphal/hookgate/pkg/hookgate/handler"
	"github.com/randalmurphal/hookgate/pkg/hookgate/hook"
)

// Router dispatches events to the chain registered for their kind.
//
// Route never returns an error: an unknown event kind, an empty chain, or
// any handler fault all resolve to an allow outcome. The only deny/ask
// outcomes leaving the router are ones a handler explicitly produced.
type Router struct {
	chains map[hook.EventKind]*chain.Chain
	logger *slog.Logger
}

// New creates an empty router.
func New(logger *slog.Logger) *Router {
	return &Router{
		chains: make(map[hook.EventKind]*chain.Chain),
		logger: logger,
	}
}

// Register appends a handler to the chain for its event kind, creating the
// chain on first use. Registration is append-only; callers must not
// double-register a handler.
func (r *Router) Register(kind hook.EventKind, h handler.Handler) {
	c, ok := r.chains[kind]
	if !ok {
		c = chain.New(kind, r.logger)
		r.chains[kind] = c
	}
	c.Add(h)
}

// Chain returns the chain for an event kind, or nil when none exists.
func (r *Router) Chain(kind hook.EventKind) *chain.Chain {
	return r.chains[kind]
}

// HandlerCounts returns the number of registered handlers per event kind.
func (r *Router) HandlerCounts() map[string]int {
	counts := make(map[string]int, len(r.chains))
	for kind, c := range r.chains {
		counts[kind.String()] = c.Len()
	}
	return counts
}

// Route evaluates the chain for an event kind over a payload.
//
// Binding deny/ask results get the disable footer appended to their
// reason: the operator-facing path from "why was I blocked" to "how do I
// turn this off". Allow results are never annotated, no matter what
// reason or context they carry.
func (r *Router) Route(ctx context.Context, kind hook.EventKind, payload hook.Payload) chain.Outcome {
	c, ok := r.chains[kind]
	if !ok {
		// No chain registered for this kind: silent allow.
		return chain.Outcome{Result: hook.Allow()}
	}

	outcome := c.Evaluate(ctx, payload)

	if outcome.Result.Decision.Binding() {
		outcome.Result.Reason = appendDisableFooter(outcome.Result, kind)
	}

	return outcome
}

// RouteString dispatches with the event kind given as its wire spelling.
func (r *Router) RouteString(ctx context.Context, kind string, payload hook.Payload) chain.Outcome {
	return r.Route(ctx, hook.KindFromString(kind), payload)
}

// appendDisableFooter adds the standardized disable instructions to a
// binding result's reason, addressed by the config key of the handler that
// produced the decision.
func appendDisableFooter(res hook.Result, kind hook.EventKind) string {
	return fmt.Sprintf("%s\n\nTo disable: handlers.%s.%s (set enabled: false)",
		res.Reason, kind.String(), res.HandlerKey)
}
