// Package notify delivers newly discovered matches to watched parties and to
// the administrator.
package notify

import (
	"context"
	"log/slog"

	"github.com/roach88/rwtracker/internal/model"
)

// Dispatcher emits the matches of one engine run.
//
// Dispatch is called once per party with at least one new match, and
// DispatchSummary once per run when any party had matches.
type Dispatcher interface {
	Dispatch(ctx context.Context, party model.Party, matches []model.MatchEvent) error
	DispatchSummary(ctx context.Context, byParty []model.PartyMatches) error
}

// NoopDispatcher discards everything. Used when decisions should be recorded
// without alerting anyone, e.g. when seeding history.
type NoopDispatcher struct {
	Logger *slog.Logger
}

var _ Dispatcher = NoopDispatcher{}

func (d NoopDispatcher) Dispatch(ctx context.Context, party model.Party, matches []model.MatchEvent) error {
	d.logger().DebugContext(ctx, "notification suppressed", "party", party.Name, "matches", len(matches))
	return nil
}

func (d NoopDispatcher) DispatchSummary(ctx context.Context, byParty []model.PartyMatches) error {
	d.logger().DebugContext(ctx, "summary suppressed", "parties", len(byParty))
	return nil
}

func (d NoopDispatcher) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
