// Package audit provides persistent storage for the daemon's decision log.
// Every processed event is recorded best-effort; a failing store is logged
// by the controller and never surfaces to the host tool.
package audit

import (
	"errors"
	"time"
)

// Entry is one recorded dispatch decision.
type Entry struct {
	// ID is a process-assigned UUID for the request.
	ID string

	// Timestamp is when the decision was produced.
	Timestamp time.Time

	// Event is the event kind's wire spelling.
	Event string

	// Decision is the verdict (allow/deny/ask).
	Decision string

	// Handler is the config key of the handler that produced a binding
	// decision; empty for default allows.
	Handler string

	// DurationMS is the chain evaluation time in milliseconds.
	DurationMS float64

	// Degraded marks decisions produced while the daemon was degraded.
	Degraded bool
}

// Store persists dispatch decisions.
// Implementations must be safe for concurrent use.
type Store interface {
	// Record stores one decision.
	Record(e Entry) error

	// Recent returns up to limit entries, newest first.
	// Returns an empty slice (not an error) when nothing is recorded.
	Recent(limit int) ([]Entry, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for audit operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("audit store closed")
)
