// Package project resolves the workspace a daemon instance serves: its
// root directory and, when the tree is version-controlled, basic VCS
// metadata. Handler builders receive the resolved context so path checks
// and advisories can anchor on the authoritative root.
package project

import (
	"os"
	"path/filepath"
	"strings"
)

// Context describes the workspace a daemon instance is bound to.
type Context struct {
	// Root is the authoritative project root (the directory containing
	// the VCS marker, or the starting directory when none is found).
	Root string

	// VCS reports whether a version-control marker was found.
	VCS bool

	// Branch is the checked-out branch name, when resolvable.
	Branch string

	// Commit is the current commit hash, when HEAD is detached.
	Commit string
}

// Resolve walks upward from start looking for a .git marker and returns
// the resulting context. The absence of version control is not an error:
// the starting directory simply becomes the root.
func Resolve(start string) (Context, error) {
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Context{}, err
		}
		start = wd
	}

	abs, err := filepath.Abs(start)
	if err != nil {
		return Context{}, err
	}

	dir := abs
	for {
		marker := filepath.Join(dir, ".git")
		if info, err := os.Stat(marker); err == nil && info.IsDir() {
			ctx := Context{Root: dir, VCS: true}
			ctx.Branch, ctx.Commit = readHead(marker)
			return ctx, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Context{Root: abs}, nil
		}
		dir = parent
	}
}

// readHead parses .git/HEAD without shelling out. A symbolic ref yields a
// branch name; a detached HEAD yields the raw commit hash.
func readHead(gitDir string) (branch, commit string) {
	data, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return "", ""
	}

	head := strings.TrimSpace(string(data))
	if ref, ok := strings.CutPrefix(head, "ref: "); ok {
		return strings.TrimPrefix(ref, "refs/heads/"), ""
	}
	return "", head
}
