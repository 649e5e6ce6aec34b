package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rwtracker/internal/model"
)

// PartyView is a party with its terms as printed by list-parties.
type PartyView struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Destinations []string `json:"destinations"`
	Terms        []string `json:"terms"`
}

// NewListPartiesCommand creates the list-parties command.
func NewListPartiesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list-parties",
		Short: "List watched parties with their destinations and terms",
		Example: `  rwtracker list-parties --db ./rwtracker.db
  rwtracker list-parties --db ./rwtracker.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListParties(rootOpts, cmd)
		},
	}
}

// NewListMatchesCommand creates the list-matches command.
func NewListMatchesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list-matches",
		Short: "List every recorded match decision",
		Example: `  rwtracker list-matches --db ./rwtracker.db
  rwtracker list-matches --db ./rwtracker.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListMatches(rootOpts, cmd)
		},
	}
}

func runListParties(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	parties, err := a.store.ListParties(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list parties", err)
	}

	views := make([]PartyView, 0, len(parties))
	for _, p := range parties {
		terms, err := a.store.TermsOf(ctx, p.ID)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to list terms", err)
		}
		views = append(views, PartyView{
			ID:           p.ID,
			Name:         p.Name,
			Destinations: p.Destinations,
			Terms:        termTexts(terms),
		})
	}

	if a.formatter.IsJSON() {
		return a.formatter.Success(views)
	}

	w := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintln(w, "No parties registered.")
		return nil
	}
	for _, v := range views {
		fmt.Fprintf(w, "[%d] %s\n", v.ID, v.Name)
		fmt.Fprintf(w, "    destinations: %s\n", strings.Join(v.Destinations, ", "))
		fmt.Fprintf(w, "    terms: %s\n", strings.Join(v.Terms, ", "))
	}
	return nil
}

func termTexts(terms []model.Term) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, t.Text)
	}
	return out
}

func runListMatches(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	decisions, err := a.store.ListDecisions(commandContext(cmd))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list matches", err)
	}

	if a.formatter.IsJSON() {
		return a.formatter.Success(decisions)
	}

	writeDecisions(cmd.OutOrStdout(), decisions)
	return nil
}

func writeDecisions(w io.Writer, decisions []model.Decision) {
	if len(decisions) == 0 {
		fmt.Fprintln(w, "No matches recorded.")
		return
	}
	for _, d := range decisions {
		fmt.Fprintf(w, "%s | %s | %s\n", d.Published, d.Term, d.PartyName)
	}
	fmt.Fprintf(w, "%d matches\n", len(decisions))
}
