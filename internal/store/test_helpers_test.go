package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/gauntlet/internal/testutil"
)

// createTestStore creates a new file-backed store with sequential handles.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequentialGenerator("snap")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
