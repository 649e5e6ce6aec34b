package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rwtracker/internal/importer"
	"github.com/roach88/rwtracker/internal/store"
)

// ImportTermsOptions holds flags for the import-terms command.
type ImportTermsOptions struct {
	*RootOptions
	PartyID int64
}

// NewImportPartiesCommand creates the import-parties command.
func NewImportPartiesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import-parties <file>",
		Short: "Import watched parties from a JSON file",
		Long: `Import watched parties from a JSON array of objects with a name and a
list of destination email addresses (recipient_list or destinations).

Example file:
  [{"name": "Acme", "recipient_list": ["soc@acme.co"]}]

Example:
  rwtracker import-parties --db ./rwtracker.db parties.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportParties(rootOpts, args[0], cmd)
		},
	}
}

// NewImportTermsCommand creates the import-terms command.
func NewImportTermsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportTermsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import-terms <file>",
		Short: "Import watch terms for a party from a JSON file",
		Long: `Import watch terms from a JSON array of strings and assign them to a
party. Terms are unique across all parties; a term that is already
registered is skipped.

Example:
  rwtracker import-terms --db ./rwtracker.db --party 1 terms.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportTerms(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.PartyID, "party", 0, "id of the party owning the terms (required)")
	_ = cmd.MarkFlagRequired("party")

	return cmd
}

func readImportFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read import file", err)
	}
	return data, nil
}

func importError(err error) error {
	if errors.Is(err, importer.ErrInvalidInput) || errors.Is(err, store.ErrPartyNotFound) {
		return WrapExitError(ExitCommandError, "import failed", err)
	}
	return WrapExitError(ExitFailure, "import failed", err)
}

func runImportParties(opts *RootOptions, path string, cmd *cobra.Command) error {
	data, err := readImportFile(path)
	if err != nil {
		return err
	}

	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := importer.ImportParties(commandContext(cmd), a.store, data)
	if err != nil {
		return importError(err)
	}

	if a.formatter.IsJSON() {
		return a.formatter.Success(report)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d parties\n", report.Added)
	for _, id := range report.IDs {
		a.formatter.VerboseLog("created party %d", id)
	}
	return nil
}

func runImportTerms(opts *ImportTermsOptions, path string, cmd *cobra.Command) error {
	data, err := readImportFile(path)
	if err != nil {
		return err
	}

	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := importer.ImportTerms(commandContext(cmd), a.store, opts.PartyID, data)
	if err != nil {
		return importError(err)
	}

	if a.formatter.IsJSON() {
		return a.formatter.Success(report)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d terms for party %d (%d already registered)\n",
		report.Added, opts.PartyID, report.Skipped)
	return nil
}
