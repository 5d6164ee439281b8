package daemon

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// ReadPIDFile parses a daemon PID file.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid file %s: %w", path, err)
	}
	return pid, nil
}

// ProcessAlive reports whether a PID belongs to a live process we can
// signal.
func ProcessAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// Stop signals a running daemon with SIGTERM and waits for its socket to
// disappear. Stale PID and socket files are cleaned up along the way.
func Stop(socketPath, pidPath string, wait time.Duration) error {
	pid, err := ReadPIDFile(pidPath)
	if err != nil {
		return fmt.Errorf("daemon not running")
	}

	process, err := os.FindProcess(pid)
	if err != nil || process.Signal(syscall.SIGTERM) != nil {
		os.Remove(pidPath)
		os.Remove(socketPath)
		return fmt.Errorf("process %d not signalable; cleaned up stale files", pid)
	}

	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
		if _, err := os.Stat(socketPath); os.IsNotExist(err) {
			return nil
		}
	}
	return fmt.Errorf("sent SIGTERM to %d but socket still exists", pid)
}
