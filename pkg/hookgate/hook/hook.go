// Package hook defines the event model shared by every layer of hookgate:
// event kinds, inbound payloads, handler decisions, and the per-kind wire
// shapes returned to the host tool.
//
// The wire contract is owned by the host tool and is bit-exact: a silent
// allow must serialize to the minimal form for its event kind (usually an
// empty JSON object), and each kind has its own response envelope. See
// response.go for the shapes.
package hook

import "strings"

// EventKind identifies the category of a hook event.
type EventKind string

const (
	// Tool-use kinds fire around individual tool invocations.
	PreToolUse  EventKind = "PreToolUse"
	PostToolUse EventKind = "PostToolUse"

	// PermissionRequest fires when the host tool is about to prompt the
	// user for permission and offers hooks a chance to decide instead.
	PermissionRequest EventKind = "PermissionRequest"

	// UserPromptSubmit fires when the user submits a prompt.
	UserPromptSubmit EventKind = "UserPromptSubmit"

	// Stop kinds fire when the host tool wants to end a turn.
	Stop         EventKind = "Stop"
	SubagentStop EventKind = "SubagentStop"

	// Session lifecycle kinds.
	SessionStart EventKind = "SessionStart"
	SessionEnd   EventKind = "SessionEnd"
)

// Kinds lists every event kind the engine routes, in a stable order.
var Kinds = []EventKind{
	PreToolUse,
	PostToolUse,
	PermissionRequest,
	UserPromptSubmit,
	Stop,
	SubagentStop,
	SessionStart,
	SessionEnd,
}

// KindFromString converts a wire spelling into an EventKind.
// Unknown spellings are returned verbatim; the router answers them with a
// silent allow rather than an error.
func KindFromString(s string) EventKind {
	return EventKind(strings.TrimSpace(s))
}

// String returns the wire spelling of the kind.
func (k EventKind) String() string {
	return string(k)
}

// Known reports whether the kind is one the engine has chains for.
func (k EventKind) Known() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsToolUse reports whether the kind fires around a tool invocation.
func (k EventKind) IsToolUse() bool {
	return k == PreToolUse || k == PostToolUse
}

// IsStop reports whether the kind is a stop request.
func (k EventKind) IsStop() bool {
	return k == Stop || k == SubagentStop
}

// IsLifecycle reports whether the kind is a session/prompt lifecycle event.
// Lifecycle kinds cannot deny on the wire: their response shape only carries
// additional context.
func (k EventKind) IsLifecycle() bool {
	return k == UserPromptSubmit || k == SessionStart || k == SessionEnd
}

// CanDeny reports whether the kind's wire shape has a channel for a binding
// deny/ask decision.
func (k EventKind) CanDeny() bool {
	return k.IsToolUse() || k.IsStop() || k == PermissionRequest
}

// Payload is the inbound event payload. Its schema is owned by the host
// tool; handlers read it through the defaulted accessors below and must
// tolerate missing fields.
type Payload map[string]any

// String returns the string value for key, or empty when missing or not a
// string.
func (p Payload) String(key string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Map returns the nested map for key, or nil.
func (p Payload) Map(key string) map[string]any {
	if v, ok := p[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// ToolName returns the tool name for tool-use payloads.
func (p Payload) ToolName() string {
	return p.String("tool_name")
}

// ToolInput returns the tool input object for tool-use payloads.
func (p Payload) ToolInput() map[string]any {
	return p.Map("tool_input")
}

// toolInputString reads a string field out of tool_input.
func (p Payload) toolInputString(key string) string {
	if in := p.ToolInput(); in != nil {
		if s, ok := in[key].(string); ok {
			return s
		}
	}
	return ""
}

// Command returns the shell command for Bash-style tool payloads.
func (p Payload) Command() string {
	return p.toolInputString("command")
}

// FilePath returns the target path for file-editing tool payloads.
func (p Payload) FilePath() string {
	return p.toolInputString("file_path")
}

// Prompt returns the prompt text for prompt-submission payloads.
func (p Payload) Prompt() string {
	return p.String("prompt")
}

// TranscriptPath returns the transcript path for stop/session payloads.
func (p Payload) TranscriptPath() string {
	return p.String("transcript_path")
}

// SessionID returns the host tool's session identifier, when present.
func (p Payload) SessionID() string {
	return p.String("session_id")
}
