package handlers

import (
	"context"
	"fmt"

	"github.com/randalmurphal/hookgate/pkg/hookgate/handler"
	"github.com/randalmurphal/hookgate/pkg/hookgate/hook"
	"github.com/randalmurphal/hookgate/pkg/hookgate/project"
)

// CommandFailureAdvisor annotates failed Bash invocations with their exit
// status so the failure is visible even when output is truncated.
// Non-terminal.
type CommandFailureAdvisor struct {
	handler.Base
}

// NewCommandFailureAdvisor creates the failure advisor.
func NewCommandFailureAdvisor(_ project.Context) *CommandFailureAdvisor {
	return &CommandFailureAdvisor{
		Base: handler.NewBase("CommandFailureAdvisor", 50, false, "advisory", "bash"),
	}
}

// Matches reports true for Bash results carrying a non-zero exit code.
func (a *CommandFailureAdvisor) Matches(p hook.Payload) bool {
	if p.ToolName() != "Bash" {
		return false
	}
	return exitCode(p) != 0
}

// Handle attaches the advisory.
func (a *CommandFailureAdvisor) Handle(_ context.Context, p hook.Payload) hook.Result {
	return hook.Allow().WithContext(
		fmt.Sprintf("Command exited with status %d.", exitCode(p)),
	)
}

// exitCode digs the exit code out of the tool response; decoders may
// deliver it as either a float or an int.
func exitCode(p hook.Payload) int {
	resp := p.Map("tool_response")
	if resp == nil {
		return 0
	}
	switch v := resp["exit_code"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
