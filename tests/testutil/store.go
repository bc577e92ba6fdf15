package testutil

import (
	"testing"

	"github.com/nvhoang/shopfeed/internal/store"
)

// NewTestMirror opens an in-memory SQLite feed mirror with the schema
// applied. It is closed automatically when the test finishes.
func NewTestMirror(t *testing.T) *store.SQLiteStore {
	t.Helper()

	mirror, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory mirror: %v", err)
	}

	t.Cleanup(func() {
		if err := mirror.Close(); err != nil {
			t.Errorf("closing mirror: %v", err)
		}
	})

	return mirror
}
