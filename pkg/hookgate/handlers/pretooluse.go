package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/randalmurphal/hookgate/pkg/hookgate/handler"
	"github.com/randalmurphal/hookgate/pkg/hookgate/hook"
	"github.com/randalmurphal/hookgate/pkg/hookgate/project"
)

// destructivePatterns match shell commands that destroy data or the
// machine's ability to boot. Kept deliberately blunt; this handler is a
// last line, not a sandbox.
var destructivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(^|[;&|]\s*)rm\s+(-[a-zA-Z]*\s+)*(/|~)(\s|$)`),
	regexp.MustCompile(`(^|[;&|]\s*)rm\s+-[a-zA-Z]*[rf][a-zA-Z]*\s+(-[a-zA-Z]*\s+)*(/|~)(\s|$)`),
	regexp.MustCompile(`(^|[;&|]\s*)mkfs(\.|(\s))`),
	regexp.MustCompile(`(^|[;&|]\s*)dd\s+.*of=/dev/(sd|nvme|disk)`),
	regexp.MustCompile(`(^|[;&|]\s*)git\s+push\s+.*--force.*\s+(origin\s+)?(main|master)(\s|$)`),
	regexp.MustCompile(`>\s*/dev/(sd|nvme)`),
	regexp.MustCompile(`(^|[;&|]\s*):\(\)\s*\{\s*:\|:`),
}

// BashGuard denies shell commands matching the destructive patterns.
// Terminal: a hit stops the chain.
type BashGuard struct {
	handler.Base
}

// NewBashGuard creates the destructive-command guard.
func NewBashGuard(_ project.Context) *BashGuard {
	return &BashGuard{
		Base: handler.NewBase("BashGuard", 10, true, "security", "bash"),
	}
}

// Matches reports true for Bash tool payloads carrying a command.
func (g *BashGuard) Matches(p hook.Payload) bool {
	return p.ToolName() == "Bash" && p.Command() != ""
}

// Handle denies when the command matches a destructive pattern.
func (g *BashGuard) Handle(_ context.Context, p hook.Payload) hook.Result {
	cmd := p.Command()
	for _, pat := range destructivePatterns {
		if pat.MatchString(cmd) {
			return hook.Deny(fmt.Sprintf("Destructive command blocked: %q matches %s", cmd, pat.String()))
		}
	}
	return hook.Allow()
}

// protectedPathPrefixes are workspace-relative or home-relative locations
// no file-editing tool may write to.
var protectedPathPrefixes = []string{
	".git/",
	".ssh/",
	".aws/",
	".gnupg/",
}

// protectedFilenames are protected in any directory.
var protectedFilenames = []string{
	".netrc",
	".git-credentials",
	"id_rsa",
	"id_ed25519",
}

// ProtectedPathGuard denies writes to credential stores and VCS internals.
// Terminal.
type ProtectedPathGuard struct {
	handler.Base
	root string
}

// NewProtectedPathGuard creates the protected-path guard anchored at the
// project root.
func NewProtectedPathGuard(proj project.Context) *ProtectedPathGuard {
	return &ProtectedPathGuard{
		Base: handler.NewBase("ProtectedPathGuard", 20, true, "security", "filesystem"),
		root: proj.Root,
	}
}

// writingTools are tool names that modify files.
var writingTools = map[string]bool{
	"Write":        true,
	"Edit":         true,
	"MultiEdit":    true,
	"NotebookEdit": true,
}

// Matches reports true for file-writing tool payloads carrying a path.
func (g *ProtectedPathGuard) Matches(p hook.Payload) bool {
	return writingTools[p.ToolName()] && p.FilePath() != ""
}

// Handle denies when the target path is protected.
func (g *ProtectedPathGuard) Handle(_ context.Context, p hook.Payload) hook.Result {
	path := p.FilePath()

	rel := path
	if filepath.IsAbs(path) && g.root != "" {
		if r, err := filepath.Rel(g.root, path); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)

	base := filepath.Base(rel)
	for _, name := range protectedFilenames {
		if base == name {
			return hook.Deny(fmt.Sprintf("Write to protected file blocked: %s", path))
		}
	}

	for _, prefix := range protectedPathPrefixes {
		if strings.HasPrefix(rel, prefix) || strings.Contains(rel, "/"+prefix) {
			return hook.Deny(fmt.Sprintf("Write inside protected directory blocked: %s", path))
		}
	}

	return hook.Allow()
}

// envFilePattern matches dotenv-style filenames.
var envFilePattern = regexp.MustCompile(`(^|/)\.env(\.[A-Za-z0-9_.-]+)?$`)

// SecretsAdvisor adds advisory context when a tool touches env-like files.
// Non-terminal: it never blocks, only annotates.
type SecretsAdvisor struct {
	handler.Base
}

// NewSecretsAdvisor creates the secrets advisor.
func NewSecretsAdvisor(_ project.Context) *SecretsAdvisor {
	return &SecretsAdvisor{
		Base: handler.NewBase("SecretsAdvisor", 100, false, "advisory", "filesystem"),
	}
}

// Matches reports true when the payload references an env-like file.
func (a *SecretsAdvisor) Matches(p hook.Payload) bool {
	if path := p.FilePath(); path != "" && envFilePattern.MatchString(filepath.ToSlash(path)) {
		return true
	}
	if cmd := p.Command(); cmd != "" && strings.Contains(cmd, ".env") {
		return true
	}
	return false
}

// Handle attaches the advisory.
func (a *SecretsAdvisor) Handle(_ context.Context, _ hook.Payload) hook.Result {
	return hook.Allow().WithContext(
		"This operation touches a dotenv-style file; avoid echoing its contents into logs or transcripts.",
	)
}
