package controller

import (
	"sync"
	"time"
)

// Stats tracks process-wide request bookkeeping. Connections are served
// concurrently, so updates go through a single mutex; reads take a
// snapshot.
type Stats struct {
	mu sync.Mutex

	startedAt    time.Time
	total        int64
	perKind      map[string]int64
	cumulativeMS float64
	errors       int64
	lastRequest  time.Time
}

// NewStats creates stats anchored at the current time.
func NewStats() *Stats {
	return &Stats{
		startedAt: time.Now(),
		perKind:   make(map[string]int64),
	}
}

// RecordRequest counts one processed request.
func (s *Stats) RecordRequest(kind string, durationMS float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.perKind[kind]++
	s.cumulativeMS += durationMS
	s.lastRequest = time.Now()
}

// RecordError counts one internal error.
func (s *Stats) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
}

// Uptime returns the time since construction.
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.startedAt)
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Total        int64            `json:"total"`
	PerKind      map[string]int64 `json:"per_kind"`
	CumulativeMS float64          `json:"cumulative_ms"`
	Errors       int64            `json:"errors"`
	LastRequest  time.Time        `json:"last_request,omitzero"`
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	perKind := make(map[string]int64, len(s.perKind))
	for k, v := range s.perKind {
		perKind[k] = v
	}
	return Snapshot{
		Total:        s.total,
		PerKind:      perKind,
		CumulativeMS: s.cumulativeMS,
		Errors:       s.errors,
		LastRequest:  s.lastRequest,
	}
}
