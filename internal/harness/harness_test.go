package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_ExpectMatchesMismatch(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: mismatch
description: "Expectation that does not hold"
parties:
  - name: Acme
    destinations: [soc@acme.co]
    terms: ["Acme Corp"]
records:
  - published: "2024-01-01T00:00Z"
    post_title: Acme Corp Breach
runs:
  - expect_matches: 2
  - expect_matches: 1
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		"run 1: expected 2 new matches, got 1",
		"run 2: expected 1 new matches, got 0",
	}, result.Errors)
}

func TestRun_TermAddedLaterMatchesOldRecords(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: late_term
description: "A term registered after ingestion still finds historical records"
parties:
  - name: Acme
    destinations: [soc@acme.co]
  - name: Globex
    destinations: [sec@globex.com]
    terms: [initech.com]
records:
  - published: "2023-05-05 10:00:00"
    post_title: Initech
    website: initech.com
runs:
  - expect_matches: 1
  - terms:
      - {party: Acme, term: Initech}
      - {party: Acme, term: initech.com}
    expect_matches: 1
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	second := result.Runs[1]
	assert.Equal(t, 1, second.TermsAdded)
	assert.Equal(t, 1, second.TermsSkipped, "term owned by another party")
	require.Len(t, second.Matches, 1)
	assert.Equal(t, TraceEvent{Party: "Acme", Term: "Initech", Published: "2023-05-05 10:00:00", Field: "title"}, second.Matches[0])

	first := result.Runs[0].Matches[0]
	assert.Equal(t, "domain", first.Field, "website takes precedence over post URL for the domain")
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/incremental_feed.yaml")
	require.NoError(t, err)

	parallel, err := Run(scenario)
	require.NoError(t, err)

	scenario.Parallelism = 0
	sequential, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, sequential.Runs, parallel.Runs)
}
