package cli

import (
	"github.com/spf13/cobra"
)

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "match",
		Short: "Match stored victims and notify parties once",
		Long: `Run the match engine once over the stored victims without fetching the
feed, and email any new matches.

Example:
  rwtracker match --db ./rwtracker.db --config ./rwtracker.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(rootOpts, cmd)
		},
	}
}

func runMatch(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	dispatcher, err := a.dispatcher()
	if err != nil {
		return err
	}

	report, err := a.tracker(dispatcher, nil).Match(commandContext(cmd))
	if writeErr := writeRun(a.formatter, newRunView(report, false)); writeErr != nil {
		return writeErr
	}
	return runOutcome(report, err)
}
