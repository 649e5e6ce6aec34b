package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/rwtracker/internal/config"
	"github.com/roach88/rwtracker/internal/engine"
	"github.com/roach88/rwtracker/internal/feed"
	"github.com/roach88/rwtracker/internal/fuzzy"
	"github.com/roach88/rwtracker/internal/metrics"
	"github.com/roach88/rwtracker/internal/notify"
	"github.com/roach88/rwtracker/internal/store"
	"github.com/roach88/rwtracker/internal/tracker"
)

// app is the state shared by commands that touch the database.
type app struct {
	opts      *RootOptions
	cfg       *config.Config
	store     *store.Store
	logger    *slog.Logger
	formatter *OutputFormatter
}

// newLogger configures slog on w. JSON output gets a JSON handler so
// diagnostics stay machine-readable.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler = slog.NewTextHandler(w, handlerOpts)
	if opts.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// openApp loads the config and opens the database.
func openApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	logger := newLogger(opts, cmd.ErrOrStderr())

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}

	logger.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	return &app{
		opts:   opts,
		cfg:    cfg,
		store:  st,
		logger: logger,
		formatter: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
	}
}

func (a *app) engine() *engine.Engine {
	return engine.New(a.store, fuzzy.Levenshtein{},
		engine.WithLogger(a.logger),
		engine.WithParallelism(a.cfg.Engine.Parallelism),
	)
}

func (a *app) source() feed.Source {
	if a.opts.Source != nil {
		return a.opts.Source
	}
	return feed.NewHTTPSource(a.cfg.Feed, feed.WithLogger(a.logger))
}

// dispatcher returns the SMTP dispatcher, failing when SMTP is not
// configured.
func (a *app) dispatcher() (notify.Dispatcher, error) {
	if a.opts.Dispatcher != nil {
		return a.opts.Dispatcher, nil
	}
	if err := a.cfg.SMTP.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "smtp is not configured", err)
	}
	return notify.NewSMTPDispatcher(a.cfg.SMTP, notify.WithLogger(a.logger)), nil
}

func (a *app) tracker(dispatcher notify.Dispatcher, m *metrics.Metrics) *tracker.Tracker {
	return tracker.New(a.source(), a.store, a.engine(), dispatcher,
		tracker.WithLogger(a.logger),
		tracker.WithMetrics(m),
	)
}

// serveMetrics serves /metrics on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
