package cli

import (
	"fmt"

	"github.com/roach88/rwtracker/internal/engine"
	"github.com/roach88/rwtracker/internal/model"
	"github.com/roach88/rwtracker/internal/tracker"
)

// MatchView is a newly discovered match as printed by the CLI.
type MatchView struct {
	Party     string `json:"party"`
	Term      string `json:"term"`
	Published string `json:"published"`
	Field     string `json:"field"`
	PostTitle string `json:"post_title"`
	Domain    string `json:"domain"`
	GroupName string `json:"group_name"`
}

// RunView summarizes a cycle or a bare engine run.
type RunView struct {
	RunID         string      `json:"run_id"`
	Ingested      *int        `json:"ingested,omitempty"`
	IngestError   string      `json:"ingest_error,omitempty"`
	DispatchError string      `json:"dispatch_error,omitempty"`
	Evaluated     int         `json:"evaluated"`
	Matches       []MatchView `json:"matches"`
}

func newMatchViews(matches []model.MatchEvent) []MatchView {
	views := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, MatchView{
			Party:     m.Party.Name,
			Term:      m.Term,
			Published: m.Record.Published,
			Field:     string(m.Field),
			PostTitle: m.Record.PostTitle,
			Domain:    m.Record.Domain,
			GroupName: m.Record.GroupName,
		})
	}
	return views
}

func newRunView(report *tracker.CycleReport, withIngest bool) RunView {
	view := RunView{Matches: []MatchView{}}
	if withIngest {
		n := report.Ingested
		view.Ingested = &n
	}
	if report.IngestErr != nil {
		view.IngestError = report.IngestErr.Error()
	}
	if report.DispatchErr != nil {
		view.DispatchError = report.DispatchErr.Error()
	}
	applyResult(&view, report.Result)
	return view
}

func applyResult(view *RunView, result *engine.Result) {
	if result == nil {
		return
	}
	view.RunID = result.RunID
	view.Evaluated = result.Evaluated
	view.Matches = newMatchViews(result.Matches())
}

func writeRun(f *OutputFormatter, view RunView) error {
	if f.IsJSON() {
		return f.Success(view)
	}

	w := f.Writer
	if view.IngestError != "" {
		fmt.Fprintf(w, "Ingest failed: %s\n", view.IngestError)
	} else if view.Ingested != nil {
		fmt.Fprintf(w, "Ingested %d new records\n", *view.Ingested)
	}
	fmt.Fprintf(w, "Run %s: %d new matches\n", view.RunID, len(view.Matches))
	for _, m := range view.Matches {
		fmt.Fprintf(w, "  %s | %s | %s | %s | %s\n", m.Party, m.Term, m.Published, m.Field, m.PostTitle)
	}
	if view.DispatchError != "" {
		fmt.Fprintf(w, "Notification errors: %s\n", view.DispatchError)
	}
	f.VerboseLog("evaluated %d pairs", view.Evaluated)
	return nil
}

// runOutcome turns a finished cycle into the command's error, if any.
func runOutcome(report *tracker.CycleReport, err error) error {
	if err != nil {
		return WrapExitError(ExitFailure, "match run failed", err)
	}
	if report.DispatchErr != nil {
		return WrapExitError(ExitFailure, "some notifications were not delivered", report.DispatchErr)
	}
	return nil
}
