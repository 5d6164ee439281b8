package audit

import "sync"

// defaultCapacity bounds the in-memory log.
const defaultCapacity = 1024

// MemoryStore is an in-memory decision log. It keeps the most recent
// entries in a bounded ring; older entries are dropped. Data is lost when
// the process exits.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	closed   bool
}

// NewMemoryStore creates a new in-memory decision log.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{capacity: defaultCapacity}
}

// Record implements Store.
func (m *MemoryStore) Record(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	m.entries = append(m.entries, e)
	if len(m.entries) > m.capacity {
		m.entries = m.entries[len(m.entries)-m.capacity:]
	}
	return nil
}

// Recent implements Store.
func (m *MemoryStore) Recent(limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	n := len(m.entries)
	if limit <= 0 || limit > n {
		limit = n
	}

	// Newest first.
	out := make([]Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = nil
	return nil
}
