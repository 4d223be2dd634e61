// Package testutil provides shared test helpers for building reading
// directories.
package testutil

import (
	"testing"

	"github.com/starford/readlog/internal/record"
	"github.com/starford/readlog/internal/storage"
)

// Store creates a record store over a fresh temporary directory.
func Store(t *testing.T) *record.Store {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return record.NewStore(fs)
}

// Reading writes a minimal reading file named name. finished is an ISO 8601
// string, or "" for a book in progress.
func Reading(t *testing.T, s *record.Store, name, title, finished string) {
	t.Helper()
	var f *string
	if finished != "" {
		f = &finished
	}
	if err := s.Write(name, record.New(title, "Author", f, record.Options{}), ""); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// Raw writes name with the given bytes, bypassing the record renderer.
func Raw(t *testing.T, s *record.Store, name, content string) {
	t.Helper()
	if err := s.Provider().Write(name, []byte(content)); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
