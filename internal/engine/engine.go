package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/rwtracker/internal/fuzzy"
	"github.com/roach88/rwtracker/internal/model"
)

// Store is the view of persistence the engine needs: the record corpus, the
// watch registry and the decision log. Implemented by *store.Store.
type Store interface {
	ListRecords(ctx context.Context) ([]model.Record, error)
	ListParties(ctx context.Context) ([]model.Party, error)
	TermsOf(ctx context.Context, partyID int64) ([]model.Term, error)
	DecidedPublished(ctx context.Context, term string, partyID int64) (map[string]struct{}, error)
	RecordDecision(ctx context.Context, d model.Decision) (bool, error)
}

// DefaultParallelism scans one party at a time.
const DefaultParallelism = 1

// Engine finds newly discovered matches.
//
// Thread-safety: FindNewMatches may be called from several goroutines; each
// call claims decisions through the store, so overlapping runs never report
// the same triple twice.
type Engine struct {
	store       Store
	scorer      fuzzy.Scorer
	logger      *slog.Logger
	runIDs      RunIDGenerator
	parallelism int
	now         func() time.Time
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithParallelism sets how many parties are scanned concurrently.
// Values below 1 are treated as 1.
func WithParallelism(n int) EngineOption {
	return func(e *Engine) {
		e.parallelism = max(n, 1)
	}
}

// WithRunIDGenerator overrides the run id source (tests use FixedGenerator).
func WithRunIDGenerator(g RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithClock overrides the time stamped on decisions.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine over the given store and scorer.
// A nil scorer selects fuzzy.Levenshtein.
func New(s Store, scorer fuzzy.Scorer, opts ...EngineOption) *Engine {
	if scorer == nil {
		scorer = fuzzy.Levenshtein{}
	}
	e := &Engine{
		store:       s,
		scorer:      scorer,
		logger:      slog.Default(),
		runIDs:      UUIDv7Generator{},
		parallelism: DefaultParallelism,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result holds the outcome of one engine run.
type Result struct {
	// RunID is stamped on every decision created by the run.
	RunID string `json:"run_id"`

	// ByParty lists, in party order, the parties with at least one new match.
	ByParty []model.PartyMatches `json:"by_party"`

	// Evaluated counts the (record, term) pairs that were scored.
	Evaluated int `json:"evaluated"`

	// Malformed counts pairs whose comparison failed and were treated as no match.
	Malformed int `json:"malformed"`
}

// Matches returns all new matches flattened in party order.
func (r *Result) Matches() []model.MatchEvent {
	matches := []model.MatchEvent{}
	for _, pm := range r.ByParty {
		matches = append(matches, pm.Matches...)
	}
	return matches
}

// Empty reports whether the run found nothing new.
func (r *Result) Empty() bool {
	return len(r.ByParty) == 0
}

// FindNewMatches evaluates every party, term and record and returns the
// matches that were decided by this run.
//
// The record corpus is read once at the start of the run. Records inserted
// while the run is in progress are picked up by the next run.
//
// On a store failure the run stops and returns the error together with the
// matches already decided, so callers can still dispatch them.
func (e *Engine) FindNewMatches(ctx context.Context) (*Result, error) {
	result := &Result{RunID: e.runIDs.Generate()}

	records, err := e.store.ListRecords(ctx)
	if err != nil {
		return result, &MatchError{Code: ErrCodeRegistry, Message: "read records", Err: err}
	}
	parties, err := e.store.ListParties(ctx)
	if err != nil {
		return result, &MatchError{Code: ErrCodeRegistry, Message: "read parties", Err: err}
	}

	corpus := prepareCorpus(records)
	scans := make([]partyScan, len(parties))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, p := range parties {
		i, p := i, p
		g.Go(func() error {
			scans[i] = e.scanParty(gctx, result.RunID, p, corpus)
			return scans[i].err
		})
	}
	runErr := g.Wait()

	for i, scan := range scans {
		result.Evaluated += scan.evaluated
		result.Malformed += scan.malformed
		if len(scan.matches) > 0 {
			result.ByParty = append(result.ByParty, model.PartyMatches{Party: parties[i], Matches: scan.matches})
		}
	}
	if result.ByParty == nil {
		result.ByParty = []model.PartyMatches{}
	}

	e.logger.Info("match run complete",
		"run_id", result.RunID,
		"records", len(records),
		"parties", len(parties),
		"evaluated", result.Evaluated,
		"new_matches", len(result.Matches()),
		"malformed", result.Malformed,
	)

	if runErr != nil {
		return result, fmt.Errorf("find new matches: %w", runErr)
	}
	return result, nil
}

type partyScan struct {
	matches   []model.MatchEvent
	evaluated int
	malformed int
	err       error
}

func (e *Engine) scanParty(ctx context.Context, runID string, p model.Party, corpus []preparedRecord) partyScan {
	var scan partyScan

	terms, err := e.store.TermsOf(ctx, p.ID)
	if err != nil {
		scan.err = &MatchError{Code: ErrCodeRegistry, Message: "read terms", PartyID: p.ID, Err: err}
		return scan
	}

	for _, t := range terms {
		if t.Text == "" {
			e.logger.Warn("skipping empty term", "party_id", p.ID, "term_id", t.ID)
			continue
		}
		term := prepareTerm(t.Text)

		decided, err := e.store.DecidedPublished(ctx, t.Text, p.ID)
		if err != nil {
			scan.err = newDecisionLogError("", t.Text, p.ID, err)
			return scan
		}

		for _, rec := range corpus {
			if err := ctx.Err(); err != nil {
				scan.err = err
				return scan
			}
			if _, ok := decided[rec.Published]; ok {
				continue
			}

			scan.evaluated++
			field, ok, cmpErr := e.evaluate(term, rec)
			if cmpErr != nil {
				scan.malformed++
				e.logger.Warn("comparison failed, treating as no match",
					"party_id", p.ID, "error", newMalformedInputError(rec.Published, t.Text, p.ID, cmpErr))
				continue
			}
			if !ok {
				continue
			}

			inserted, err := e.store.RecordDecision(ctx, model.Decision{
				Published: rec.Published,
				Term:      t.Text,
				PartyID:   p.ID,
				RunID:     runID,
				DecidedAt: e.now(),
			})
			if err != nil {
				scan.err = newDecisionLogError(rec.Published, t.Text, p.ID, err)
				return scan
			}
			decided[rec.Published] = struct{}{}
			if !inserted {
				// Claimed by an overlapping run.
				continue
			}

			e.logger.Debug("new match",
				"run_id", runID, "party", p.Name, "term", t.Text,
				"published", rec.Published, "field", field)
			scan.matches = append(scan.matches, model.MatchEvent{
				Record: rec.Record,
				Term:   t.Text,
				Party:  p,
				Field:  field,
			})
		}
	}
	return scan
}
