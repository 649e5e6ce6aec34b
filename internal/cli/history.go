package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rwtracker/internal/model"
)

// HistoryView is the JSON payload of match-history: the run that was just
// recorded and every decision in the log.
type HistoryView struct {
	Run     RunView          `json:"run"`
	History []model.Decision `json:"history"`
}

// NewMatchHistoryCommand creates the match-history command.
func NewMatchHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "match-history",
		Short: "Record all current matches without notifying anyone",
		Long: `Run the match engine over every stored victim and record the matches as
already decided, without sending email, then list every recorded match. Use
it after a backfill or a bulk term import so that historical victims are not
reported as new.

Example:
  rwtracker match-history --db ./rwtracker.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatchHistory(rootOpts, cmd)
		},
	}
}

func runMatchHistory(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	result, runErr := a.tracker(nil, nil).MatchHistory(ctx)
	view := RunView{Matches: []MatchView{}}
	applyResult(&view, result)

	history, err := a.store.ListDecisions(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list matches", err)
	}
	if history == nil {
		history = []model.Decision{}
	}

	if a.formatter.IsJSON() {
		if err := a.formatter.Success(HistoryView{Run: view, History: history}); err != nil {
			return err
		}
	} else {
		if err := writeRun(a.formatter, view); err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Historical matches:")
		writeDecisions(w, history)
	}

	if runErr != nil {
		return WrapExitError(ExitFailure, "match run failed", runErr)
	}
	return nil
}
