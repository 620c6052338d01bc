package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"familychores/internal/config"
	"familychores/internal/core"
	"familychores/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	mode       string
	trace      bool
	metricsOut string
}

// app is one CLI invocation: configuration, logger and a loaded coordinator.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	out      io.Writer
	svc      *core.Service
	adapter  domain.Adapter
	registry *prometheus.Registry
	flags    *globalFlags
	close    func() error
}

func newApp(flags *globalFlags, stdout, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.mode != "" {
		cfg.Mode = flags.mode
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	return &app{cfg: cfg, logger: logger, out: stdout, flags: flags, close: func() error { return nil }}, nil
}

// open builds the adapter for the configured mode and loads the coordinator state.
// Everything that can fail is set up before the adapter, so a failed open holds nothing.
func (a *app) open(ctx context.Context, stderr io.Writer) error {
	registry := prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetrics(registry)
	if err != nil {
		return err
	}

	opts := a.cfg.StorageOptions(a.cfg.Mode)
	opts.Logger = a.logger
	adapter, closeFn, err := core.OpenAdapter(ctx, opts)
	if err != nil {
		return fmt.Errorf("open %s adapter: %w", a.cfg.Mode, err)
	}
	a.adapter = adapter
	a.close = closeFn
	a.registry = registry

	svcOpts := []core.ServiceOption{
		core.WithLogger(a.logger),
		core.WithMetrics(metrics),
		core.WithErrorTTL(a.cfg.ErrorTTL),
	}
	if a.flags.trace {
		svcOpts = append(svcOpts, core.WithTracer(core.NewJSONTracer(stderr)))
	}
	a.svc = core.NewService(core.NewStore(), adapter, svcOpts...)
	a.svc.Load(ctx)
	return nil
}

func (a *app) shutdown() (err error) {
	defer closeInto(&err, a.cfg.Mode+" adapter", a.close)
	if a.flags.metricsOut != "" && a.registry != nil {
		if err := prometheus.WriteToTextfile(a.flags.metricsOut, a.registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// closeInto runs fn and joins its failure into *err.
func closeInto(err *error, what string, fn func() error) {
	if cerr := fn(); cerr != nil {
		*err = errors.Join(*err, fmt.Errorf("close %s: %w", what, cerr))
	}
}

// withService wraps a command body that needs a loaded coordinator.
func withService(flags *globalFlags, fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := a.open(ctx, cmd.ErrOrStderr()); err != nil {
			return err
		}
		runErr := fn(ctx, a, args)
		if err := a.shutdown(); err != nil && runErr == nil {
			runErr = err
		}
		return runErr
	}
}

// failure turns a coordinator error into the user-visible message when one was reported.
func (a *app) failure(err error) error {
	if msg := a.svc.Errors().Current(); msg != "" {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return err
}
