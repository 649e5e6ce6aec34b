package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// BackfillOptions holds flags for the backfill command.
type BackfillOptions struct {
	*RootOptions
	StartYear int
	EndYear   int
}

// BackfillResult is the JSON payload of the backfill command.
type BackfillResult struct {
	StartYear int    `json:"start_year"`
	EndYear   int    `json:"end_year"`
	Ingested  int    `json:"ingested"`
	Error     string `json:"error,omitempty"`
}

// NewBackfillCommand creates the backfill command.
func NewBackfillCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BackfillOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Load past years of victims from the feed",
		Long: `Fetch every victim published from --start-year to --end-year and store
the ones not seen before. Nothing is matched or sent; run match-history
afterwards to mark historical matches as decided.

Examples:
  rwtracker backfill --db ./rwtracker.db --start-year 2021
  rwtracker backfill --start-year 2022 --end-year 2023`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackfill(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.StartYear, "start-year", 0, "first year to fetch (default current year)")
	cmd.Flags().IntVar(&opts.EndYear, "end-year", 0, "last year to fetch (default current year)")

	return cmd
}

func runBackfill(opts *BackfillOptions, cmd *cobra.Command) error {
	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tr := a.tracker(nil, nil)
	current := tr.CurrentYear()
	start, end := opts.StartYear, opts.EndYear
	if end == 0 {
		end = current
	}
	if start == 0 {
		start = min(current, end)
	}
	if start > end {
		return NewExitError(ExitCommandError, fmt.Sprintf("start year %d is after end year %d", start, end))
	}

	n, err := tr.Backfill(commandContext(cmd), start, end)
	result := BackfillResult{StartYear: start, EndYear: end, Ingested: n}
	if err != nil {
		result.Error = err.Error()
	}

	if a.formatter.IsJSON() {
		if writeErr := a.formatter.Success(result); writeErr != nil {
			return writeErr
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Backfilled %d-%d: %d new records\n", start, end, n)
	}

	if err != nil {
		return WrapExitError(ExitFailure, "backfill incomplete", err)
	}
	return nil
}
