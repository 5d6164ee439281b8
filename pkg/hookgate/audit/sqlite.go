package audit

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists the decision log to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite decision log.
// The path should be a file path (e.g., "./audit.db") or ":memory:" for
// testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS decisions (
			id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			event TEXT NOT NULL,
			decision TEXT NOT NULL,
			handler TEXT NOT NULL DEFAULT '',
			duration_ms REAL NOT NULL,
			degraded INTEGER NOT NULL DEFAULT 0
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_decisions_timestamp
		ON decisions(timestamp)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Record implements Store.
func (s *SQLiteStore) Record(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	degraded := 0
	if e.Degraded {
		degraded = 1
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO decisions
			(id, timestamp, event, decision, handler, duration_ms, degraded)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Timestamp.UTC().Format(time.RFC3339Nano), e.Event, e.Decision,
		e.Handler, e.DurationMS, degraded)

	if err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	return nil
}

// Recent implements Store.
func (s *SQLiteStore) Recent(limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT id, timestamp, event, decision, handler, duration_ms, degraded
		FROM decisions
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var timestamp string
		var degraded int
		if err := rows.Scan(&e.ID, &timestamp, &e.Event, &e.Decision,
			&e.Handler, &e.DurationMS, &degraded); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
		e.Degraded = degraded != 0
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}

	return entries, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
