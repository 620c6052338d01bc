package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"familychores/internal/adapters/httpapi"
	"familychores/internal/config"
	"familychores/internal/core"
	"familychores/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var listen, backend string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chores REST API under /api and metrics under /metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if listen != "" {
				a.cfg.Server.ListenAddr = listen
			}
			if backend != "" {
				a.cfg.Server.Backend = backend
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.cfg, a.logger)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config, :3001)")
	cmd.Flags().StringVar(&backend, "backend", "", "Storage behind the API (memory, local, sqlite, postgres)")
	return cmd
}

// newServerMux mounts the REST handler under /api/ and the Prometheus handler at /metrics.
func newServerMux(backend domain.Adapter, logger *slog.Logger, reg *prometheus.Registry) (*http.ServeMux, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chores_http_requests_total",
		Help: "REST requests by status code and method.",
	}, []string{"code", "method"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chores_http_request_duration_seconds",
		Help:    "REST request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"code", "method"})
	for _, c := range []prometheus.Collector{requests, latency, collectors.NewGoCollector()} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	api := httpapi.NewHandler(backend, logger)
	instrumented := promhttp.InstrumentHandlerDuration(latency, promhttp.InstrumentHandlerCounter(requests, api))

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", instrumented))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) (err error) {
	opts := cfg.StorageOptions(cfg.Server.Backend)
	opts.Logger = logger
	backend, closeFn, err := core.OpenAdapter(ctx, opts)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.Server.Backend, err)
	}
	defer closeInto(&err, cfg.Server.Backend+" backend", closeFn)

	reg := prometheus.NewRegistry()
	mux, err := newServerMux(backend, logger, reg)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("serving chores api", "addr", srv.Addr, "backend", cfg.Server.Backend)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
