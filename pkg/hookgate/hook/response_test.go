package hook_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/hookgate/pkg/hookgate/hook"
)

// TestSilentAllowIsEmptyObject verifies the minimal wire form for every
// event kind.
func TestSilentAllowIsEmptyObject(t *testing.T) {
	for _, kind := range hook.Kinds {
		t.Run(kind.String(), func(t *testing.T) {
			data, err := hook.MarshalResponse(kind, hook.Allow())
			require.NoError(t, err)
			assert.JSONEq(t, `{}`, string(data))
		})
	}
}

// TestToolUseShapes verifies the hookSpecificOutput envelope for tool-use
// kinds.
func TestToolUseShapes(t *testing.T) {
	tests := []struct {
		name   string
		kind   hook.EventKind
		result hook.Result
		want   string
	}{
		{
			name:   "deny",
			kind:   hook.PreToolUse,
			result: hook.Deny("dangerous"),
			want: `{"hookSpecificOutput":{"hookEventName":"PreToolUse",
				"permissionDecision":"deny","permissionDecisionReason":"dangerous"}}`,
		},
		{
			name:   "ask",
			kind:   hook.PreToolUse,
			result: hook.Ask("confirm this"),
			want: `{"hookSpecificOutput":{"hookEventName":"PreToolUse",
				"permissionDecision":"ask","permissionDecisionReason":"confirm this"}}`,
		},
		{
			name:   "allow with context only",
			kind:   hook.PreToolUse,
			result: hook.Allow().WithContext("heads up"),
			want:   `{"hookSpecificOutput":{"hookEventName":"PreToolUse","additionalContext":"heads up"}}`,
		},
		{
			name:   "explicit allow with reason",
			kind:   hook.PostToolUse,
			result: hook.Result{Decision: hook.DecisionAllow, Reason: "fine"},
			want: `{"hookSpecificOutput":{"hookEventName":"PostToolUse",
				"permissionDecision":"allow","permissionDecisionReason":"fine"}}`,
		},
		{
			name:   "deny with context",
			kind:   hook.PreToolUse,
			result: hook.Deny("no").WithContext("a", "b"),
			want: `{"hookSpecificOutput":{"hookEventName":"PreToolUse",
				"permissionDecision":"deny","permissionDecisionReason":"no","additionalContext":"a\nb"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := hook.MarshalResponse(tt.kind, tt.result)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

// TestStopShapes verifies stop kinds use the top-level block form and
// never the hookSpecificOutput wrapper.
func TestStopShapes(t *testing.T) {
	data, err := hook.MarshalResponse(hook.Stop, hook.Deny("finish the task"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"decision":"block","reason":"finish the task"}`, string(data))

	// Ask has no channel on stop kinds; it blocks too.
	data, err = hook.MarshalResponse(hook.SubagentStop, hook.Ask("sure?"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"decision":"block","reason":"sure?"}`, string(data))

	// A non-silent allow has nowhere to surface on stop kinds.
	data, err = hook.MarshalResponse(hook.Stop, hook.Allow().WithContext("note"))
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))

	for _, res := range []hook.Result{hook.Deny("x"), hook.Allow().WithContext("y")} {
		resp := hook.Response(hook.Stop, res)
		_, hasWrapper := resp["hookSpecificOutput"]
		assert.False(t, hasWrapper, "stop kinds must never use hookSpecificOutput")
	}
}

// TestPermissionRequestShapes verifies the top-level decision object.
func TestPermissionRequestShapes(t *testing.T) {
	data, err := hook.MarshalResponse(hook.PermissionRequest, hook.Deny("nope"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"decision":{"behavior":"deny","message":"nope"}}`, string(data))

	data, err = hook.MarshalResponse(hook.PermissionRequest,
		hook.Result{Decision: hook.DecisionAllow, Reason: "read-only"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"decision":{"behavior":"allow","message":"read-only"}}`, string(data))

	data, err = hook.MarshalResponse(hook.PermissionRequest, hook.Ask("your call"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"decision":{"behavior":"ask","message":"your call"}}`, string(data))
}

// TestLifecycleShapes verifies session kinds carry only additionalContext.
func TestLifecycleShapes(t *testing.T) {
	data, err := hook.MarshalResponse(hook.SessionStart, hook.Allow().WithContext("welcome"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"hookSpecificOutput":{"hookEventName":"SessionStart","additionalContext":"welcome"}}`, string(data))

	// Lifecycle kinds cannot deny; a binding reason folds into context.
	resp := hook.Response(hook.UserPromptSubmit, hook.Deny("blocked").WithContext("extra"))
	out, ok := resp["hookSpecificOutput"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "blocked\nextra", out["additionalContext"])
	_, hasPermission := out["permissionDecision"]
	assert.False(t, hasPermission, "lifecycle kinds must not carry permission fields")
}

// TestResponseIsValidJSON guards against shapes json.Marshal cannot encode.
func TestResponseIsValidJSON(t *testing.T) {
	for _, kind := range hook.Kinds {
		for _, res := range []hook.Result{
			hook.Allow(),
			hook.Deny("r"),
			hook.Ask("r"),
			hook.Allow().WithContext("c").WithGuidance("g"),
		} {
			data, err := hook.MarshalResponse(kind, res)
			require.NoError(t, err)
			assert.True(t, json.Valid(data))
		}
	}
}

func TestSilent(t *testing.T) {
	assert.True(t, hook.Allow().Silent())
	assert.False(t, hook.Allow().WithContext("x").Silent())
	assert.False(t, hook.Allow().WithGuidance("g").Silent())
	assert.False(t, hook.Deny("r").Silent())
	assert.False(t, hook.Result{Decision: hook.DecisionAllow, Reason: "r"}.Silent())
}

func TestKindClassification(t *testing.T) {
	assert.True(t, hook.PreToolUse.IsToolUse())
	assert.True(t, hook.Stop.IsStop())
	assert.True(t, hook.SessionEnd.IsLifecycle())
	assert.False(t, hook.SessionEnd.CanDeny())
	assert.True(t, hook.PermissionRequest.CanDeny())
	assert.False(t, hook.KindFromString("NoSuchKind").Known())
}

func TestPayloadAccessors(t *testing.T) {
	p := hook.Payload{
		"tool_name": "Bash",
		"tool_input": map[string]any{
			"command":   "ls",
			"file_path": "/tmp/x",
		},
		"prompt":          "hi",
		"transcript_path": "/tmp/t.jsonl",
	}

	assert.Equal(t, "Bash", p.ToolName())
	assert.Equal(t, "ls", p.Command())
	assert.Equal(t, "/tmp/x", p.FilePath())
	assert.Equal(t, "hi", p.Prompt())
	assert.Equal(t, "/tmp/t.jsonl", p.TranscriptPath())

	empty := hook.Payload{}
	assert.Empty(t, empty.ToolName())
	assert.Empty(t, empty.Command())
	assert.Nil(t, empty.ToolInput())
}
