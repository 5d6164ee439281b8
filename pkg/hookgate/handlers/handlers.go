// Package handlers hosts the built-in decision units and the explicit
// catalog the registry discovers them from. Each handler stays small:
// string checks on commands and paths, advisory context on lifecycle
// events. The dispatch machinery treats them purely through the handler
// contract.
package handlers

import (
	"github.com/randalmurphal/hookgate/pkg/hookgate/handler"
	"github.com/randalmurphal/hookgate/pkg/hookgate/hook"
	"github.com/randalmurphal/hookgate/pkg/hookgate/project"
	"github.com/randalmurphal/hookgate/pkg/hookgate/registry"
)

// Catalog returns the built-in handler builders per event kind. Order
// within a kind is the registration order and therefore the tiebreak for
// equal priorities.
func Catalog() registry.Catalog {
	return registry.Catalog{
		hook.PreToolUse: {
			builder(NewBashGuard),
			builder(NewProtectedPathGuard),
			builder(NewSecretsAdvisor),
		},
		hook.PostToolUse: {
			builder(NewCommandFailureAdvisor),
		},
		hook.PermissionRequest: {
			builder(NewReadOnlyToolAllow),
		},
		hook.UserPromptSubmit: {
			builder(NewPromptProjectContext),
		},
		hook.SessionStart: {
			builder(NewSessionContext),
		},
		// Stop, SubagentStop, and SessionEnd ship without built-ins: the
		// silent allow is the common case for those kinds.
	}
}

// builder adapts a typed constructor to the registry's Builder signature.
func builder[H handler.Handler](ctor func(project.Context) H) registry.Builder {
	return func(proj project.Context) (handler.Handler, error) {
		return ctor(proj), nil
	}
}
