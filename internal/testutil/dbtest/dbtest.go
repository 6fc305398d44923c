// Package dbtest provides a store helper for tests. It lives outside
// the packages under test so any of them can use it without import
// cycles.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/Nurdvu1et/email-archiver/internal/store"
)

// NewStore opens a throwaway store in a temp directory with the schema
// applied. It is closed automatically when the test ends.
func NewStore(t testing.TB) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.InitSchema(); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return s
}
