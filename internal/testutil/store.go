package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rwtracker/internal/model"
	"github.com/roach88/rwtracker/internal/store"
)

// NewStore opens a store in a fresh temp directory and closes it when the
// test ends.
func NewStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// Record builds a record with the fields the match rules look at.
func Record(published, title, postURL string) model.Record {
	return model.Record{
		Published: published,
		PostTitle: title,
		PostURL:   postURL,
		GroupName: "lockbit3",
	}
}

// SeedRecords inserts records and fails the test on error.
func SeedRecords(t *testing.T, s *store.Store, recs ...model.Record) {
	t.Helper()
	for _, r := range recs {
		_, err := s.UpsertRecord(context.Background(), r)
		require.NoError(t, err, "insert %s", r.Published)
	}
}

// SeedParty creates a party with the given destinations and terms.
func SeedParty(t *testing.T, s *store.Store, name string, destinations []string, terms ...string) model.Party {
	t.Helper()
	ctx := context.Background()

	id, err := s.AddParty(ctx, name, destinations)
	require.NoError(t, err)
	for _, term := range terms {
		added, err := s.AddTerm(ctx, id, term)
		require.NoError(t, err)
		require.True(t, added, "term %q already registered", term)
	}

	p, err := s.GetParty(ctx, id)
	require.NoError(t, err)
	return p
}
