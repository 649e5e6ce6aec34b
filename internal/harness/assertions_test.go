package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rwtracker/internal/model"
	"github.com/roach88/rwtracker/internal/testutil"
)

func sampleResult() *Result {
	r := NewResult()
	r.Runs = []RunTrace{
		{Run: 1, RunID: "run-1", Matches: []TraceEvent{
			{Party: "Acme", Term: "Acme Corp", Published: "p1", Field: "title"},
			{Party: "Acme", Term: "acme.co", Published: "p1", Field: "domain"},
		}},
		{Run: 2, RunID: "run-2", Matches: []TraceEvent{}},
	}
	return r
}

func TestAssertMatchContains(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertMatchContains(r, Assertion{Party: "Acme", Term: "Acme Corp", Published: "p1"}))
	assert.NoError(t, assertMatchContains(r, Assertion{Run: 1, Party: "Acme", Term: "acme.co", Published: "p1", Field: "domain"}))

	err := assertMatchContains(r, Assertion{Run: 2, Party: "Acme", Term: "Acme Corp", Published: "p1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 2")
	assert.Contains(t, err.Error(), "Full trace:")

	assert.Error(t, assertMatchContains(r, Assertion{Party: "Acme", Term: "Acme Corp", Published: "p1", Field: "domain"}))
}

func TestAssertMatchCount(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertMatchCount(r, Assertion{Count: 2}))
	assert.NoError(t, assertMatchCount(r, Assertion{Run: 2, Count: 0}))

	err := assertMatchCount(r, Assertion{Run: 1, Count: 3})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "2 matches", ae.Actual)
}

func TestAssertDecisions(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()

	testutil.SeedRecords(t, s, testutil.Record("p1", "Acme Corp Breach", "http://acme.co"))
	party := testutil.SeedParty(t, s, "Acme", []string{"soc@acme.co"}, "Acme Corp")
	_, err := s.RecordDecision(ctx, model.Decision{Published: "p1", Term: "Acme Corp", PartyID: party.ID})
	require.NoError(t, err)

	actx := &AssertionContext{Store: s, Ctx: ctx, Parties: map[string]model.Party{"Acme": party}}
	r := sampleResult()

	exists := Assertion{Type: AssertDecisionExists, Party: "Acme", Term: "Acme Corp", Published: "p1"}
	absent := Assertion{Type: AssertNoDecision, Party: "Acme", Term: "acme.co", Published: "p1"}
	assert.Empty(t, EvaluateAssertions(r, []Assertion{
		exists,
		absent,
		{Type: AssertDecisionCount, Count: 1},
	}, actx))

	failures := EvaluateAssertions(r, []Assertion{
		{Type: AssertNoDecision, Party: "Acme", Term: "Acme Corp", Published: "p1"},
		{Type: AssertDecisionCount, Count: 2},
		{Type: AssertDecisionExists, Party: "Nobody", Term: "x", Published: "p1"},
	}, actx)
	require.Len(t, failures, 3)
	assert.Contains(t, failures[0], "present=true")
	assert.Contains(t, failures[1], "1 decisions")
	assert.Contains(t, failures[2], `unknown party "Nobody"`)
}
