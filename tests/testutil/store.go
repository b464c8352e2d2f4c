package testutil

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/nhle/pillbox/internal/store"
)

// NewTestStore creates a temp-file SQLiteStore with all migrations applied.
// A file-backed database is required because each pooled connection to
// ":memory:" opens a separate empty database, so nested queries (which
// grab a second connection) would not see the migrated schema.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
