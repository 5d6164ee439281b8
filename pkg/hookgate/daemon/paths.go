package daemon

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

// Environment variables overriding the auto-discovered paths. They let
// multiple daemon instances (one per working tree) coexist without
// collision.
const (
	SocketEnv  = "HOOKGATE_SOCKET"
	PIDFileEnv = "HOOKGATE_PID_FILE"
)

// runtimeDir is the per-user directory holding sockets and PID files.
func runtimeDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "hookgate")
	}
	return filepath.Join(os.TempDir(), "hookgate")
}

// workspaceSuffix derives a short stable suffix from the workspace root so
// per-tree daemons get distinct default paths.
func workspaceSuffix(root string) string {
	if root == "" {
		return "default"
	}
	sum := sha256.Sum256([]byte(filepath.Clean(root)))
	return hex.EncodeToString(sum[:])[:12]
}

// DefaultSocketPath returns the socket path for a workspace, honoring the
// environment override.
func DefaultSocketPath(root string) string {
	if p := os.Getenv(SocketEnv); p != "" {
		return p
	}
	return filepath.Join(runtimeDir(), "daemon-"+workspaceSuffix(root)+".sock")
}

// DefaultPIDPath returns the PID-file path for a workspace, honoring the
// environment override.
func DefaultPIDPath(root string) string {
	if p := os.Getenv(PIDFileEnv); p != "" {
		return p
	}
	return filepath.Join(runtimeDir(), "daemon-"+workspaceSuffix(root)+".pid")
}
