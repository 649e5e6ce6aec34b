package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "One party, one run"
parties:
  - name: Acme
    destinations: [soc@acme.co]
    terms: [acme.co]
runs:
  - expect_matches: 0
`

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Parties, 1)
	assert.Equal(t, []string{"acme.co"}, s.Parties[0].Terms)
	require.Len(t, s.Runs, 1)
	require.NotNil(t, s.Runs[0].ExpectMatches)
	assert.Equal(t, 0, *s.Runs[0].ExpectMatches)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_RecordTitle(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario + `
records:
  - published: "1"
    post_title: Acme
  - published: "2"
    post_title: ""
  - published: "3"
`))
	require.NoError(t, err)
	require.Len(t, s.Records, 3)

	assert.False(t, s.Records[0].record().TitleMissing)
	assert.Equal(t, "Acme", s.Records[0].record().PostTitle)
	assert.False(t, s.Records[1].record().TitleMissing, "empty title is still a title")
	assert.True(t, s.Records[2].record().TitleMissing)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    minimalScenario + "assertion: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			yaml:    "description: d\nparties: [{name: A}]\nruns: [{}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nparties: [{name: A}]\nruns: [{}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no parties",
			yaml:    "name: n\ndescription: d\nruns: [{}]\n",
			wantErr: "parties list is required",
		},
		{
			name:    "no runs",
			yaml:    "name: n\ndescription: d\nparties: [{name: A}]\n",
			wantErr: "runs list is required",
		},
		{
			name:    "duplicate party",
			yaml:    "name: n\ndescription: d\nparties: [{name: A}, {name: A}]\nruns: [{}]\n",
			wantErr: `duplicate party "A"`,
		},
		{
			name:    "record without published",
			yaml:    "name: n\ndescription: d\nparties: [{name: A}]\nrecords: [{post_title: x}]\nruns: [{}]\n",
			wantErr: "records[0]: published is required",
		},
		{
			name:    "term for unknown party",
			yaml:    "name: n\ndescription: d\nparties: [{name: A}]\nruns: [{terms: [{party: B, term: x}]}]\n",
			wantErr: `unknown party "B"`,
		},
		{
			name:    "unknown assertion type",
			yaml:    "name: n\ndescription: d\nparties: [{name: A}]\nruns: [{}]\nassertions: [{type: trace_order}]\n",
			wantErr: `unknown assertion type "trace_order"`,
		},
		{
			name:    "assertion run out of range",
			yaml:    "name: n\ndescription: d\nparties: [{name: A}]\nruns: [{}]\nassertions: [{type: match_count, run: 2}]\n",
			wantErr: "out of range",
		},
		{
			name:    "match_contains missing triple",
			yaml:    "name: n\ndescription: d\nparties: [{name: A}]\nruns: [{}]\nassertions: [{type: match_contains, party: A}]\n",
			wantErr: "party, term and published are required",
		},
		{
			name:    "bad field",
			yaml:    "name: n\ndescription: d\nparties: [{name: A}]\nruns: [{}]\nassertions: [{type: match_contains, party: A, term: t, published: p, field: body}]\n",
			wantErr: "field must be title or domain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
