package handlers

import (
	"context"
	"fmt"

	"github.com/randalmurphal/hookgate/pkg/hookgate/handler"
	"github.com/randalmurphal/hookgate/pkg/hookgate/hook"
	"github.com/randalmurphal/hookgate/pkg/hookgate/project"
)

// readOnlyTools never need a permission prompt: no side effects.
var readOnlyTools = map[string]bool{
	"Read":      true,
	"Glob":      true,
	"Grep":      true,
	"WebFetch":  true,
	"WebSearch": true,
}

// ReadOnlyToolAllow answers permission requests for read-only tools with
// an explicit allow so the host skips its own prompt. Terminal is
// irrelevant here: allow never short-circuits.
type ReadOnlyToolAllow struct {
	handler.Base
}

// NewReadOnlyToolAllow creates the read-only auto-approver.
func NewReadOnlyToolAllow(_ project.Context) *ReadOnlyToolAllow {
	return &ReadOnlyToolAllow{
		Base: handler.NewBase("ReadOnlyToolAllow", 10, false, "permissions"),
	}
}

// Matches reports true for read-only tool names.
func (a *ReadOnlyToolAllow) Matches(p hook.Payload) bool {
	return readOnlyTools[p.ToolName()]
}

// Handle returns an explicit (non-silent) allow.
func (a *ReadOnlyToolAllow) Handle(_ context.Context, p hook.Payload) hook.Result {
	return hook.Result{
		Decision: hook.DecisionAllow,
		Reason:   fmt.Sprintf("%s is read-only", p.ToolName()),
	}
}

// PromptProjectContext injects the resolved project location into every
// submitted prompt. Matches unconditionally for its kind.
type PromptProjectContext struct {
	handler.Base
	proj project.Context
}

// NewPromptProjectContext creates the prompt context injector.
func NewPromptProjectContext(proj project.Context) *PromptProjectContext {
	return &PromptProjectContext{
		Base: handler.NewBase("PromptProjectContext", 100, false, "advisory", "context"),
		proj: proj,
	}
}

// Matches always reports true; this handler is defined to match
// unconditionally for its event kind.
func (h *PromptProjectContext) Matches(_ hook.Payload) bool {
	return true
}

// Handle attaches the project banner.
func (h *PromptProjectContext) Handle(_ context.Context, _ hook.Payload) hook.Result {
	return hook.Allow().WithContext(projectBanner(h.proj))
}

// SessionContext announces the workspace at session start.
type SessionContext struct {
	handler.Base
	proj project.Context
}

// NewSessionContext creates the session banner handler.
func NewSessionContext(proj project.Context) *SessionContext {
	return &SessionContext{
		Base: handler.NewBase("SessionContext", 100, false, "advisory", "context"),
		proj: proj,
	}
}

// Matches always reports true for session starts.
func (h *SessionContext) Matches(_ hook.Payload) bool {
	return true
}

// Handle attaches the project banner.
func (h *SessionContext) Handle(_ context.Context, _ hook.Payload) hook.Result {
	return hook.Allow().WithContext(projectBanner(h.proj))
}

func projectBanner(proj project.Context) string {
	if !proj.VCS {
		return fmt.Sprintf("Project root: %s (no VCS detected)", proj.Root)
	}
	if proj.Branch != "" {
		return fmt.Sprintf("Project root: %s (branch %s)", proj.Root, proj.Branch)
	}
	return fmt.Sprintf("Project root: %s (detached at %s)", proj.Root, proj.Commit)
}
