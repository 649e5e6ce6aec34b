package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/rwtracker/internal/metrics"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Interval      time.Duration
	Once          bool
	MetricsListen string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the feed and notify parties of new matches",
		Long: `Poll the victim feed, store new victims, match them against every
party's terms and email new matches. Runs a cycle immediately and then once
per interval until interrupted.

Examples:
  rwtracker watch --config ./rwtracker.yaml
  rwtracker watch --db ./rwtracker.db --interval 30m --metrics-listen :9090
  rwtracker watch --once --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "polling interval (overrides config polling_interval)")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "run a single cycle and exit")
	cmd.Flags().StringVar(&opts.MetricsListen, "metrics-listen", "", "address to serve /metrics on (overrides config)")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	interval := opts.Interval
	if interval == 0 {
		interval = a.cfg.PollingInterval
	}
	if interval < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid interval %s", interval))
	}

	dispatcher, err := a.dispatcher()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	listen := opts.MetricsListen
	if listen == "" {
		listen = a.cfg.Metrics.Listen
	}
	if listen != "" {
		serveMetrics(ctx, listen, m, a.logger)
	}

	tr := a.tracker(dispatcher, m)

	if opts.Once {
		report, err := tr.Cycle(ctx)
		if writeErr := writeRun(a.formatter, newRunView(report, true)); writeErr != nil {
			return writeErr
		}
		return runOutcome(report, err)
	}

	if !a.formatter.IsJSON() {
		fmt.Fprintf(cmd.OutOrStdout(), "Watching feed every %s. Press Ctrl-C to stop.\n", interval)
	}
	if err := tr.Run(ctx, interval); err != nil {
		return WrapExitError(ExitFailure, "tracker error", err)
	}
	a.logger.Info("tracker stopped gracefully")
	return nil
}
