package audit_test

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/hookgate/pkg/hookgate/audit"
)

func entry(event, decision string) audit.Entry {
	return audit.Entry{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Event:      event,
		Decision:   decision,
		Handler:    "bash_guard",
		DurationMS: 1.5,
	}
}

// storeTest exercises the Store contract against any implementation.
func storeTest(t *testing.T, store audit.Store) {
	t.Helper()

	base := time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)
	first := entry("PreToolUse", "deny")
	first.Timestamp = base
	require.NoError(t, store.Record(first))
	second := entry("Stop", "allow")
	second.Timestamp = base.Add(time.Second)
	require.NoError(t, store.Record(second))

	entries, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, "Stop", entries[0].Event)
	assert.Equal(t, first.ID, entries[1].ID)
	assert.Equal(t, "deny", entries[1].Decision)
	assert.Equal(t, "bash_guard", entries[1].Handler)
	assert.InDelta(t, 1.5, entries[1].DurationMS, 0.001)

	limited, err := store.Recent(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second.ID, limited[0].ID)

	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Record(entry("Stop", "allow")), audit.ErrStoreClosed)
}

func TestMemoryStore(t *testing.T) {
	storeTest(t, audit.NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	store, err := audit.NewSQLiteStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	storeTest(t, store)
}

func TestSQLiteStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	store, err := audit.NewSQLiteStore(path)
	require.NoError(t, err)
	e := entry("PreToolUse", "ask")
	require.NoError(t, store.Record(e))
	require.NoError(t, store.Close())

	reopened, err := audit.NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, e.ID, entries[0].ID)
	assert.Equal(t, "ask", entries[0].Decision)
}

func TestMemoryStoreBounded(t *testing.T) {
	store := audit.NewMemoryStore()
	for i := 0; i < 1100; i++ {
		e := entry("PreToolUse", "allow")
		e.ID = fmt.Sprintf("id-%d", i)
		require.NoError(t, store.Record(e))
	}

	entries, err := store.Recent(0)
	require.NoError(t, err)
	assert.Len(t, entries, 1024)
	assert.Equal(t, "id-1099", entries[0].ID)
}

func TestEmptyStore(t *testing.T) {
	store := audit.NewMemoryStore()
	entries, err := store.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
