package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-filter/internal/adapters/clients"
	httpadapter "github.com/jsamuelsen/quote-filter/internal/adapters/http"
	"github.com/jsamuelsen/quote-filter/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-filter/internal/app"
	"github.com/jsamuelsen/quote-filter/internal/domain"
	"github.com/jsamuelsen/quote-filter/internal/platform/config"
	"github.com/jsamuelsen/quote-filter/internal/ports"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cleaner over HTTP",
		Long: `Run an HTTP server exposing POST /api/v1/records/clean and
POST /api/v1/normalize, plus the /-/live, /-/ready, /-/build and /-/metrics
probes. The server drains in-flight requests on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := bootstrap(cmd.Context(), root, func(cfg *config.Config) {
				if cmd.Flags().Changed("port") {
					cfg.Server.Port = port
				}
			})
			if err != nil {
				return err
			}
			defer env.close()

			return runServe(cmd.Context(), env)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (server.port)")

	return cmd
}

func runServe(ctx context.Context, env *environment) error {
	cfg := env.cfg
	logger := env.logger

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	healthRegistry := ports.NewHealthRegistry(0)

	fetcher, err := clients.NewDatasetFetcher(cfg.Client, logger)
	if err != nil {
		return err
	}

	if err := healthRegistry.Register(fetcher); err != nil {
		return fmt.Errorf("registering dataset source health check: %w", err)
	}

	cleaner := app.NewCleaner(app.CleanerConfig{
		Rules: domain.Rules{
			ForbiddenTags:   cfg.Pipeline.ForbiddenTags,
			MaxAuthorSpaces: cfg.Pipeline.MaxAuthorSpaces,
		},
		Logger:  logger,
		Metrics: app.NewMetrics(prometheus.DefaultRegisterer),
	})

	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)

	server := httpadapter.New(&cfg.Server, logger)

	routerCfg := httpadapter.NewDefaultRouterConfig(
		logger,
		cfg.Telemetry.ServiceName,
		handlers.NewHealthHandler(healthRegistry, buildInfo, prometheus.DefaultGatherer),
		handlers.NewRecordsHandler(cleaner, env.delimiter()),
	)
	routerCfg.Timeout = cfg.Server.RequestTimeout
	httpadapter.SetupRouter(server.Engine(), routerCfg)

	serverErr := server.Start()

	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

// waitForShutdown blocks until the command context is cancelled or the server
// fails, then drains in-flight requests.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *httpadapter.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	select {
	case err, ok := <-serverErr:
		if ok && err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		logger.Info("received shutdown signal", slog.Any("cause", context.Cause(ctx)))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
