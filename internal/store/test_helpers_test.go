package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/rwtracker/internal/model"
)

// createTestStore creates a new file-backed store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates a record with the fields the match rules look at.
func createTestRecord(published, title, postURL string) model.Record {
	return model.Record{
		Published: published,
		PostTitle: title,
		PostURL:   postURL,
		GroupName: "lockbit3",
	}
}

// mustInsertRecord inserts a record and fails the test on error.
func mustInsertRecord(t *testing.T, s *Store, rec model.Record) {
	t.Helper()
	if _, err := s.UpsertRecord(context.Background(), rec); err != nil {
		t.Fatalf("UpsertRecord(%q) failed: %v", rec.Published, err)
	}
}

// mustAddParty creates a party and fails the test on error.
func mustAddParty(t *testing.T, s *Store, name string, destinations ...string) int64 {
	t.Helper()
	id, err := s.AddParty(context.Background(), name, destinations)
	if err != nil {
		t.Fatalf("AddParty(%q) failed: %v", name, err)
	}
	return id
}
