// Package tracker runs the ingest, match and notify cycle.
//
// A cycle fetches the recent feed page, stores the records it has not seen,
// asks the engine for newly discovered matches and hands them to the
// dispatcher. Decisions are durable before dispatch starts, so a failed
// notification is never retried and never re-emitted.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/rwtracker/internal/engine"
	"github.com/roach88/rwtracker/internal/feed"
	"github.com/roach88/rwtracker/internal/metrics"
	"github.com/roach88/rwtracker/internal/model"
	"github.com/roach88/rwtracker/internal/notify"
)

// RecordWriter persists feed records. Implemented by *store.Store.
type RecordWriter interface {
	UpsertRecords(ctx context.Context, recs []model.Record) (int, error)
}

// Matcher finds newly discovered matches. Implemented by *engine.Engine.
type Matcher interface {
	FindNewMatches(ctx context.Context) (*engine.Result, error)
}

// Tracker wires a feed source, the record store, the match engine and a
// dispatcher together.
type Tracker struct {
	source     feed.Source
	records    RecordWriter
	matcher    Matcher
	dispatcher notify.Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = l
	}
}

// WithMetrics records cycle metrics. Nil disables them.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// WithClock overrides the clock used for cycle timing and backfill years.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// New creates a Tracker. A nil dispatcher discards notifications.
func New(source feed.Source, records RecordWriter, matcher Matcher, dispatcher notify.Dispatcher, opts ...Option) *Tracker {
	t := &Tracker{
		source:     source,
		records:    records,
		matcher:    matcher,
		dispatcher: dispatcher,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.dispatcher == nil {
		t.dispatcher = notify.NoopDispatcher{Logger: t.logger}
	}
	return t
}

// CycleReport describes one cycle. Ingest and dispatch failures are
// reported here rather than returned, because the cycle carries on past them.
type CycleReport struct {
	Ingested    int
	IngestErr   error
	Result      *engine.Result
	DispatchErr error
	Duration    time.Duration
}

// Outcome classifies the report for metrics and logs.
func (r *CycleReport) Outcome() string {
	switch {
	case r.IngestErr != nil:
		return metrics.OutcomeIngestFailed
	case r.DispatchErr != nil:
		return metrics.OutcomeDispatchError
	default:
		return metrics.OutcomeOK
	}
}

// Ingest fetches the recent feed page and stores new records.
// It returns how many records were stored for the first time.
func (t *Tracker) Ingest(ctx context.Context) (int, error) {
	return t.ingestPath(ctx, feed.RecentPath)
}

func (t *Tracker) ingestPath(ctx context.Context, path string) (int, error) {
	recs, err := t.source.Fetch(ctx, path)
	if err != nil {
		t.metrics.IncFetchErrors()
		return 0, fmt.Errorf("ingest %s: %w", path, err)
	}

	n, err := t.records.UpsertRecords(ctx, recs)
	t.metrics.AddRecordsIngested(n)
	if err != nil {
		return n, fmt.Errorf("ingest %s: store: %w", path, err)
	}

	t.logger.Info("feed ingested", "source", t.source.Name(), "path", path, "fetched", len(recs), "new", n)
	return n, nil
}

// Cycle runs ingest, match and notify once.
//
// A failed ingest does not stop matching against the records already
// stored. The returned error is set only when the engine fails; matches it
// decided before failing are still dispatched.
func (t *Tracker) Cycle(ctx context.Context) (*CycleReport, error) {
	start := t.now()
	report := &CycleReport{}

	n, err := t.Ingest(ctx)
	report.Ingested = n
	if err != nil {
		report.IngestErr = err
		t.logger.Warn("ingest failed, matching stored records", "error", err)
	}

	err = t.match(ctx, t.dispatcher, report)
	report.Duration = t.now().Sub(start)

	outcome := report.Outcome()
	if err != nil {
		outcome = metrics.OutcomeMatchFailed
	}
	t.metrics.ObserveCycle(outcome, report.Duration)
	return report, err
}

// Match runs the engine and dispatches its matches without fetching.
func (t *Tracker) Match(ctx context.Context) (*CycleReport, error) {
	report := &CycleReport{}
	err := t.match(ctx, t.dispatcher, report)
	return report, err
}

// MatchHistory records decisions for every current match without notifying
// anyone. Use it to seed the decision log before the first watch.
func (t *Tracker) MatchHistory(ctx context.Context) (*engine.Result, error) {
	report := &CycleReport{}
	err := t.match(ctx, notify.NoopDispatcher{Logger: t.logger}, report)
	return report.Result, err
}

func (t *Tracker) match(ctx context.Context, d notify.Dispatcher, report *CycleReport) error {
	result, err := t.matcher.FindNewMatches(ctx)
	report.Result = result
	if result != nil {
		report.DispatchErr = t.dispatch(ctx, d, result)
	}
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}
	return nil
}

// dispatch sends each party its matches, then the summary. A failing party
// does not stop the others.
func (t *Tracker) dispatch(ctx context.Context, d notify.Dispatcher, result *engine.Result) error {
	if result.Empty() {
		return nil
	}

	var errs []error
	for _, pm := range result.ByParty {
		t.metrics.AddMatches(pm.Party.Name, len(pm.Matches))
		if err := d.Dispatch(ctx, pm.Party, pm.Matches); err != nil {
			t.metrics.IncDispatchErrors()
			t.logger.Error("dispatch failed", "party", pm.Party.Name, "matches", len(pm.Matches), "error", err)
			errs = append(errs, fmt.Errorf("party %q: %w", pm.Party.Name, err))
		}
	}
	if err := d.DispatchSummary(ctx, result.ByParty); err != nil {
		t.metrics.IncDispatchErrors()
		t.logger.Error("summary dispatch failed", "error", err)
		errs = append(errs, fmt.Errorf("summary: %w", err))
	}
	return errors.Join(errs...)
}

// Backfill fetches every year from startYear to endYear inclusive and stores
// new records. No matching or notification happens; the next cycle picks the
// records up. A failed year is logged and skipped.
func (t *Tracker) Backfill(ctx context.Context, startYear, endYear int) (int, error) {
	if startYear > endYear {
		return 0, fmt.Errorf("backfill: start year %d is after end year %d", startYear, endYear)
	}

	var (
		total int
		errs  []error
	)
	for year := startYear; year <= endYear; year++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := t.ingestPath(ctx, feed.YearPath(year))
		total += n
		if err != nil {
			t.logger.Warn("backfill year failed", "year", year, "error", err)
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// CurrentYear returns the year of the tracker's clock.
func (t *Tracker) CurrentYear() int {
	return t.now().Year()
}

// Run runs a cycle immediately and then once per interval until ctx is
// cancelled. Cycle failures are logged; the loop keeps going.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("run: interval must be positive, got %s", interval)
	}

	t.logger.Info("tracker started", "source", t.source.Name(), "interval", interval)
	t.runCycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("tracker stopping", "reason", context.Cause(ctx))
			return nil
		case <-ticker.C:
			t.runCycle(ctx)
		}
	}
}

func (t *Tracker) runCycle(ctx context.Context) {
	report, err := t.Cycle(ctx)
	if err != nil {
		t.logger.Error("cycle failed", "error", err)
		return
	}
	matches := 0
	if report.Result != nil {
		matches = len(report.Result.Matches())
	}
	t.logger.Info("cycle complete",
		"outcome", report.Outcome(),
		"ingested", report.Ingested,
		"new_matches", matches,
		"duration", report.Duration)
}
