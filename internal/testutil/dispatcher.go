package testutil

import (
	"context"
	"sync"

	"github.com/roach88/rwtracker/internal/model"
)

// RecordingDispatcher captures dispatch calls for assertions.
//
// Set FailParty to make Dispatch fail for the party with that name, and
// FailSummary to make DispatchSummary fail. Calls are recorded either way.
//
// Thread-safety: safe for concurrent use.
type RecordingDispatcher struct {
	FailParty   string
	FailSummary bool

	mu        sync.Mutex
	dispatch  []model.PartyMatches
	summaries [][]model.PartyMatches
}

// DispatchError is returned by a RecordingDispatcher configured to fail.
type DispatchError struct {
	Target string
}

func (e *DispatchError) Error() string {
	return "dispatch to " + e.Target + " failed"
}

func (d *RecordingDispatcher) Dispatch(_ context.Context, party model.Party, matches []model.MatchEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatch = append(d.dispatch, model.PartyMatches{Party: party, Matches: matches})
	if d.FailParty != "" && party.Name == d.FailParty {
		return &DispatchError{Target: party.Name}
	}
	return nil
}

func (d *RecordingDispatcher) DispatchSummary(_ context.Context, byParty []model.PartyMatches) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.summaries = append(d.summaries, byParty)
	if d.FailSummary {
		return &DispatchError{Target: "admin"}
	}
	return nil
}

// Dispatched returns every Dispatch call in order.
func (d *RecordingDispatcher) Dispatched() []model.PartyMatches {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.PartyMatches(nil), d.dispatch...)
}

// Summaries returns every DispatchSummary call in order.
func (d *RecordingDispatcher) Summaries() [][]model.PartyMatches {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]model.PartyMatches(nil), d.summaries...)
}

// Reset forgets all recorded calls.
func (d *RecordingDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatch = nil
	d.summaries = nil
}
