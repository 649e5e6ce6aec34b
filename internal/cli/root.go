package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/rwtracker/internal/feed"
	"github.com/roach88/rwtracker/internal/notify"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string // overrides the config file's database

	// Source and Dispatcher override the feed client and the SMTP
	// dispatcher (for testing). If nil, both are built from the config.
	Source     feed.Source
	Dispatcher notify.Dispatcher
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rwtracker CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rwtracker",
		Short: "rwtracker - ransomware victim feed tracker",
		Long: `Polls the ransomware victim feed, stores every disclosed victim once and
notifies watched parties when one of their terms matches a victim's post
title or domain. Each match is reported exactly once.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML or JSON config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")

	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewMatchCommand(opts))
	cmd.AddCommand(NewBackfillCommand(opts))
	cmd.AddCommand(NewImportPartiesCommand(opts))
	cmd.AddCommand(NewImportTermsCommand(opts))
	cmd.AddCommand(NewListPartiesCommand(opts))
	cmd.AddCommand(NewListMatchesCommand(opts))
	cmd.AddCommand(NewMatchHistoryCommand(opts))

	return cmd
}

// Execute runs the command line and returns the process exit code.
// Errors are written to stdout as a JSON response in json mode and to
// stderr otherwise.
func Execute(args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	code := GetExitCode(err)
	formatter := &OutputFormatter{Format: opts.Format, Writer: stderr, Verbose: opts.Verbose}
	if opts.Format == "json" {
		formatter.Writer = stdout
	}
	_ = formatter.Error(errorCode(code), err.Error(), nil)
	return code
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
