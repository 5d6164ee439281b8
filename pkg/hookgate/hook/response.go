package hook

import (
	"encoding/json"
	"strings"
)

// Wire field names owned by the host tool. These spellings are a contract:
// the host matches on them exactly.
const (
	fieldHookSpecificOutput = "hookSpecificOutput"
	fieldHookEventName      = "hookEventName"
	fieldPermissionDecision = "permissionDecision"
	fieldPermissionReason   = "permissionDecisionReason"
	fieldAdditionalContext  = "additionalContext"
	fieldDecision           = "decision"
	fieldReason             = "reason"
	fieldBehavior           = "behavior"
	fieldMessage            = "message"
)

// Response builds the event-kind-specific wire shape for a result.
//
//   - Tool-use kinds wrap everything in hookSpecificOutput, with
//     permissionDecision/permissionDecisionReason for binding decisions and
//     additionalContext for advisories.
//   - Stop kinds answer a binding decision with a top-level
//     {"decision": "block", "reason": ...} and never use hookSpecificOutput.
//   - PermissionRequest answers with a top-level decision object carrying a
//     behavior.
//   - Lifecycle kinds only ever carry additionalContext; they cannot deny,
//     so a binding reason is folded into the context channel.
//
// A silent allow serializes to an empty object for every kind.
func Response(kind EventKind, r Result) map[string]any {
	if r.Silent() {
		return map[string]any{}
	}

	switch {
	case kind.IsToolUse():
		return toolUseResponse(kind, r)
	case kind.IsStop():
		return stopResponse(r)
	case kind == PermissionRequest:
		return permissionResponse(r)
	case kind.IsLifecycle():
		return lifecycleResponse(kind, r)
	default:
		// Unknown kinds only reach here if a handler somehow produced a
		// non-silent result for one; answer minimally.
		return map[string]any{}
	}
}

// MarshalResponse serializes the wire shape for a result.
func MarshalResponse(kind EventKind, r Result) ([]byte, error) {
	return json.Marshal(Response(kind, r))
}

func toolUseResponse(kind EventKind, r Result) map[string]any {
	out := map[string]any{
		fieldHookEventName: kind.String(),
	}

	if r.Decision.Binding() {
		out[fieldPermissionDecision] = string(r.Decision)
		out[fieldPermissionReason] = r.Reason
	} else if r.Reason != "" {
		// Explicit (non-silent) allow with a stated reason.
		out[fieldPermissionDecision] = string(DecisionAllow)
		out[fieldPermissionReason] = r.Reason
	}

	if ctx := r.advisoryText(); ctx != "" {
		out[fieldAdditionalContext] = ctx
	}

	return map[string]any{fieldHookSpecificOutput: out}
}

func stopResponse(r Result) map[string]any {
	// Stop kinds expose a single block channel on the wire. Ask has no
	// representation there, so it blocks as well; a non-silent allow has
	// nowhere to surface and degrades to the minimal form.
	if r.Decision.Binding() {
		return map[string]any{
			fieldDecision: "block",
			fieldReason:   r.Reason,
		}
	}
	return map[string]any{}
}

func permissionResponse(r Result) map[string]any {
	behavior := "allow"
	switch r.Decision {
	case DecisionDeny:
		behavior = "deny"
	case DecisionAsk:
		behavior = "ask"
	}

	decision := map[string]any{fieldBehavior: behavior}
	if r.Reason != "" {
		decision[fieldMessage] = r.Reason
	}
	return map[string]any{fieldDecision: decision}
}

func lifecycleResponse(kind EventKind, r Result) map[string]any {
	parts := make([]string, 0, len(r.Context)+2)
	if r.Decision.Binding() && r.Reason != "" {
		parts = append(parts, r.Reason)
	}
	parts = append(parts, r.Context...)
	if r.Guidance != "" {
		parts = append(parts, r.Guidance)
	}

	if len(parts) == 0 {
		return map[string]any{}
	}

	return map[string]any{
		fieldHookSpecificOutput: map[string]any{
			fieldHookEventName:     kind.String(),
			fieldAdditionalContext: strings.Join(parts, "\n"),
		},
	}
}

// advisoryText joins the context and guidance channels for kinds that carry
// advisories in a single additionalContext string.
func (r Result) advisoryText() string {
	parts := make([]string, 0, len(r.Context)+1)
	parts = append(parts, r.Context...)
	if r.Guidance != "" {
		parts = append(parts, r.Guidance)
	}
	return strings.Join(parts, "\n")
}
