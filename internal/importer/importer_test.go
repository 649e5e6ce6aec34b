package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rwtracker/internal/store"
	"github.com/roach88/rwtracker/internal/testutil"
)

func TestParseParties(t *testing.T) {
	parties, err := ParseParties([]byte(`[
		{"name": "Acme", "recipient_list": ["soc@acme.co", "ciso@acme.co"]},
		{"name": "Globex", "destinations": ["sec@globex.com"], "note": "extra keys are ignored"}
	]`))
	require.NoError(t, err)
	require.Len(t, parties, 2)
	assert.Equal(t, []string{"soc@acme.co", "ciso@acme.co"}, parties[0].AllDestinations())
	assert.Equal(t, []string{"sec@globex.com"}, parties[1].AllDestinations())
}

func TestParseParties_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{oops`},
		{"not a list", `{"name": "Acme"}`},
		{"missing name", `[{"destinations": ["a@b.c"]}]`},
		{"blank name", `[{"name": "  ", "destinations": ["a@b.c"]}]`},
		{"name not a string", `[{"name": 7, "destinations": ["a@b.c"]}]`},
		{"no destinations", `[{"name": "Acme"}]`},
		{"empty destinations", `[{"name": "Acme", "destinations": []}]`},
		{"destination with space", `[{"name": "Acme", "destinations": ["a b@c.d"]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParties([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
}

func TestParseTerms(t *testing.T) {
	terms, err := ParseTerms([]byte(`["Acme Corp", "acme.co"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Corp", "acme.co"}, terms)

	terms, err = ParseTerms([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, terms)

	for _, doc := range []string{`["ok", ""]`, `["ok", 3]`, `"acme"`, `[`} {
		_, err := ParseTerms([]byte(doc))
		assert.ErrorIs(t, err, ErrInvalidInput, doc)
	}
}

func TestImportParties(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()

	report, err := ImportParties(ctx, s, []byte(`[
		{"name": "Acme", "recipient_list": ["soc@acme.co"]},
		{"name": "Globex", "destinations": ["sec@globex.com", "it@globex.com"]}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Added)
	assert.Equal(t, 0, report.Skipped)
	require.Len(t, report.IDs, 2)

	parties, err := s.ListParties(ctx)
	require.NoError(t, err)
	require.Len(t, parties, 2)
	assert.Equal(t, "Acme", parties[0].Name)
	assert.Equal(t, []string{"sec@globex.com", "it@globex.com"}, parties[1].Destinations)
}

func TestImportParties_InvalidWritesNothing(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()

	_, err := ImportParties(ctx, s, []byte(`[
		{"name": "Acme", "destinations": ["soc@acme.co"]},
		{"name": "Broken"}
	]`))
	require.ErrorIs(t, err, ErrInvalidInput)

	parties, err := s.ListParties(ctx)
	require.NoError(t, err)
	assert.Empty(t, parties)
}

func TestImportTerms(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()

	acme := testutil.SeedParty(t, s, "Acme", []string{"soc@acme.co"}, "acme.co")
	globex := testutil.SeedParty(t, s, "Globex", []string{"sec@globex.com"})

	report, err := ImportTerms(ctx, s, globex.ID, []byte(`["Globex", "globex.com", "Globex", "acme.co"]`))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Added)
	assert.Equal(t, 2, report.Skipped, "in-file duplicate and a term owned by another party")

	terms, err := s.TermsOf(ctx, globex.ID)
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, "Globex", terms[0].Text)

	acmeTerms, err := s.TermsOf(ctx, acme.ID)
	require.NoError(t, err)
	assert.Len(t, acmeTerms, 1, "existing owner keeps the term")
}

func TestImportTerms_UnknownParty(t *testing.T) {
	s := testutil.NewStore(t)
	_, err := ImportTerms(context.Background(), s, 42, []byte(`["Acme"]`))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrPartyNotFound)
}
