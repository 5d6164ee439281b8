package hook

// Decision is the outcome of evaluating a hook event.
type Decision string

const (
	// DecisionAllow lets the host tool proceed. An allow with no reason,
	// no context, and no guidance is the silent allow.
	DecisionAllow Decision = "allow"

	// DecisionDeny blocks the action with a reason.
	DecisionDeny Decision = "deny"

	// DecisionAsk defers to the user with a reason.
	DecisionAsk Decision = "ask"
)

// Binding reports whether the decision blocks or defers (deny/ask).
// Only binding decisions from terminal handlers short-circuit a chain.
func (d Decision) Binding() bool {
	return d == DecisionDeny || d == DecisionAsk
}

// Result is a handler's decision for one event. Results are created fresh
// per handler invocation and never mutated after construction; the With*
// helpers return copies.
type Result struct {
	// Decision is the verdict.
	Decision Decision

	// Reason explains a deny/ask in human-readable terms. Required for
	// binding decisions, typically absent for allow.
	Reason string

	// Context holds ordered advisory messages surfaced to the host tool
	// regardless of decision, even on allow.
	Context []string

	// Guidance is a legacy advisory channel whose placement is
	// kind-specific; most handlers leave it empty.
	Guidance string

	// HandlerKey is the config key of the handler that produced a binding
	// decision. Filled in by the chain, not by handlers.
	HandlerKey string
}

// Allow returns a silent allow.
func Allow() Result {
	return Result{Decision: DecisionAllow}
}

// Deny returns a binding deny with the given reason.
func Deny(reason string) Result {
	return Result{Decision: DecisionDeny, Reason: reason}
}

// Ask returns a binding ask with the given reason.
func Ask(reason string) Result {
	return Result{Decision: DecisionAsk, Reason: reason}
}

// WithContext returns a copy of the result with advisory messages appended.
func (r Result) WithContext(msgs ...string) Result {
	if len(msgs) == 0 {
		return r
	}
	ctx := make([]string, 0, len(r.Context)+len(msgs))
	ctx = append(ctx, r.Context...)
	ctx = append(ctx, msgs...)
	r.Context = ctx
	return r
}

// WithGuidance returns a copy of the result with the guidance channel set.
func (r Result) WithGuidance(g string) Result {
	r.Guidance = g
	return r
}

// Silent reports whether the result is the silent allow: an allow carrying
// no reason, no context, and no guidance. Silent allows serialize to the
// minimal wire form for their event kind.
func (r Result) Silent() bool {
	return r.Decision == DecisionAllow &&
		r.Reason == "" &&
		len(r.Context) == 0 &&
		r.Guidance == ""
}
