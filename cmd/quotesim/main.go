// Command quotesim quotes swaps against pool snapshot files, converts
// prices to ticks and sizes concentrated-liquidity deposits.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/doxx-org/doxx-app-sub000/internal/platform/config"
	"github.com/doxx-org/doxx-app-sub000/internal/platform/observability"
)

func main() {
	root := &cobra.Command{
		Use:          "quotesim",
		Short:        "Swap quote and liquidity math harness",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path (default ./config/config.yaml)")
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before config")

	root.AddCommand(newRouteCmd(), newTickCmd(), newPositionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app bundles what every subcommand needs.
type app struct {
	cfg      *config.Config
	logger   *observability.Logger
	metrics  *observability.Metrics
	tracing  *observability.TracerProvider
	registry *config.Registry

	metricsServer *http.Server
}

// setup loads .env and config, then wires observability. Missing .env files
// are ignored.
func setup(cmd *cobra.Command) (*app, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	metrics, err := observability.NewMetrics(cfg.ServiceName, cfg.Observability.Metrics.Enabled)
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	tracing, err := observability.NewTracerProvider(cmd.Context(), observability.TracingOptions{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		Sampler:     cfg.Observability.Tracing.Sampler,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("create tracer: %w", err)
	}

	registry, err := config.NewRegistry(cfg.Tokens)
	if err != nil {
		return nil, fmt.Errorf("token registry: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		tracing:  tracing,
		registry: registry,
	}

	if cfg.Observability.Metrics.Enabled {
		a.serveMetrics(cmd.Context())
	}

	return a, nil
}

func (a *app) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())

	a.metricsServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Observability.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.LogInfo(ctx, "serving metrics", "port", a.cfg.Observability.Metrics.Port)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.LogError(ctx, "metrics server failed", err)
		}
	}()
}

// close flushes spans and stops the metrics server.
func (a *app) close(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.LogError(ctx, "metrics server shutdown failed", err)
		}
	}
	if err := a.tracing.Shutdown(shutdownCtx); err != nil {
		a.logger.LogError(ctx, "tracer shutdown failed", err)
	}
}
