package daemon

import "github.com/randalmurphal/hookgate/pkg/hookgate/hook"

// Request is one newline-delimited JSON request from a client. Two
// families share the frame: event requests carry an event kind plus the
// hook input; system requests carry an action instead.
type Request struct {
	// Event is the event kind's wire spelling, for event requests.
	Event string `json:"event,omitempty"`

	// HookInput is the host tool's payload for the event.
	HookInput hook.Payload `json:"hook_input,omitempty"`

	// Action is "health" or "handlers", for system requests.
	Action string `json:"action,omitempty"`

	// RequestID is an optional client-chosen correlation id, echoed back
	// in the response.
	RequestID string `json:"request_id,omitempty"`
}

// System actions.
const (
	ActionHealth   = "health"
	ActionHandlers = "handlers"
)

// errorResponse builds the error envelope for one connection's failed
// request.
func errorResponse(msg, requestID string) map[string]any {
	resp := map[string]any{"error": msg}
	if requestID != "" {
		resp["request_id"] = requestID
	}
	return resp
}

// resultResponse builds the plain envelope for system requests.
func resultResponse(result any, requestID string) map[string]any {
	resp := map[string]any{"result": result}
	if requestID != "" {
		resp["request_id"] = requestID
	}
	return resp
}
