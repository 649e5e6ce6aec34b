package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/rwtracker/internal/engine"
	"github.com/roach88/rwtracker/internal/fuzzy"
	"github.com/roach88/rwtracker/internal/model"
	"github.com/roach88/rwtracker/internal/store"
	"github.com/roach88/rwtracker/internal/testutil"
)

// Harness executes one scenario against an isolated store.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	parties map[string]model.Party
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. Setup failures and store
// errors are returned as errors; unmet expectations and assertions are
// reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	runIDs := make([]string, len(scenario.Runs))
	for i := range runIDs {
		runIDs[i] = fmt.Sprintf("run-%d", i+1)
	}

	h := &Harness{
		store: st,
		engine: engine.New(st, fuzzy.Levenshtein{},
			engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			engine.WithParallelism(scenario.Parallelism),
			engine.WithRunIDGenerator(engine.NewFixedGenerator(runIDs...)),
			engine.WithClock(testutil.NewStepClock().Now),
		),
		parties: make(map[string]model.Party, len(scenario.Parties)),
	}

	ctx := context.Background()
	if err := h.setup(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Runs {
		trace, err := h.run(ctx, i+1, step)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}
		result.Runs = append(result.Runs, trace)

		if step.ExpectMatches != nil && len(trace.Matches) != *step.ExpectMatches {
			result.AddError(fmt.Sprintf("run %d: expected %d new matches, got %d",
				i+1, *step.ExpectMatches, len(trace.Matches)))
		}
	}

	actx := &AssertionContext{
		Store:   st,
		Ctx:     ctx,
		Parties: h.parties,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func (h *Harness) setup(ctx context.Context, scenario *Scenario) error {
	for _, ps := range scenario.Parties {
		id, err := h.store.AddParty(ctx, ps.Name, ps.Destinations)
		if err != nil {
			return err
		}
		party, err := h.store.GetParty(ctx, id)
		if err != nil {
			return err
		}
		h.parties[ps.Name] = party

		for _, term := range ps.Terms {
			if _, err := h.store.AddTerm(ctx, id, term); err != nil {
				return err
			}
		}
	}

	_, err := h.store.UpsertRecords(ctx, records(scenario.Records))
	return err
}

func (h *Harness) run(ctx context.Context, n int, step RunStep) (RunTrace, error) {
	trace := RunTrace{Run: n, Matches: []TraceEvent{}}

	added, err := h.store.UpsertRecords(ctx, records(step.Records))
	if err != nil {
		return trace, err
	}
	trace.RecordsAdded = added

	for _, ts := range step.Terms {
		ok, err := h.store.AddTerm(ctx, h.parties[ts.Party].ID, ts.Term)
		if err != nil {
			return trace, err
		}
		if ok {
			trace.TermsAdded++
		} else {
			trace.TermsSkipped++
		}
	}

	res, err := h.engine.FindNewMatches(ctx)
	if err != nil {
		return trace, err
	}
	trace.RunID = res.RunID
	trace.Evaluated = res.Evaluated
	trace.Malformed = res.Malformed
	for _, m := range res.Matches() {
		trace.Matches = append(trace.Matches, TraceEvent{
			Party:     m.Party.Name,
			Term:      m.Term,
			Published: m.Record.Published,
			Field:     string(m.Field),
		})
	}
	return trace, nil
}

func records(specs []RecordSpec) []model.Record {
	recs := make([]model.Record, len(specs))
	for i, rs := range specs {
		recs[i] = rs.record()
	}
	return recs
}
