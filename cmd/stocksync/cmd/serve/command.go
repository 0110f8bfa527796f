// Package serve provides the serve command: the read API plus the cron
// scheduler in one process.
package serve

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/stocksync/cmd/application"
	"github.com/agentstation/stocksync/internal/scheduler"
	"github.com/agentstation/stocksync/internal/server"
	"github.com/agentstation/stocksync/pkg/constants"
)

// NewCommand creates the serve command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Run the scheduler and the read API",
		Long: `Serve starts the HTTP read API and a cron scheduler that runs a sync pass
on every tick. With sync.enabled=false every tick is logged and skipped.

Endpoints:
  GET  /products, /api/v1/products        stored products
  GET  /api/v1/stock-out-events           recorded stock-outs
  POST /api/v1/sync                       run a pass now
  GET  /api/v1/sync/last                  last pass report
  GET  /health, /api/v1/ready             liveness and readiness
  GET  /metrics                           Prometheus metrics`,
		Example: `  # Defaults: localhost:8080, a pass every minute
  stocksync serve

  # Every 30 seconds, no mock vendor, postgres store
  stocksync serve --cron "*/30 * * * * *" --mock-vendor=false \
    --store-driver postgres --store-dsn "postgres://localhost/stocksync"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), app)
		},
	}

	// Bound onto configuration keys by the app.
	cmd.Flags().String("host", "localhost", "Bind address")
	cmd.Flags().Int("port", 8080, "Server port")
	cmd.Flags().Int("rate-limit", constants.DefaultRateLimit, "Requests per minute per IP (0 to disable)")
	cmd.Flags().Bool("cors", false, "Enable CORS")
	cmd.Flags().StringSlice("cors-origins", nil, "Allowed CORS origins (comma-separated)")
	cmd.Flags().Bool("metrics", true, "Expose /metrics")
	cmd.Flags().Bool("mock-vendor", true, "Serve the sample vendor snapshot")
	cmd.Flags().String("cron", constants.DefaultCron, "Sync schedule (six-field cron, seconds first)")
	cmd.Flags().String("store-driver", "memory", "Store backend: memory, postgres, mysql")
	cmd.Flags().String("store-dsn", "", "Store connection string")
	cmd.Flags().String("redis-addr", "", "Publish stock-outs to this Redis server")

	return cmd
}

func run(ctx context.Context, app application.Application) error {
	cfg := app.Config()
	logger := app.Logger()

	srvCfg := server.ConfigFrom(cfg.Server)
	srv, err := server.New(app, srvCfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// With sync disabled the scheduler still ticks; the runner logs and
	// skips each trigger.
	runner, err := app.Runner()
	if err != nil {
		return err
	}
	sched, err := scheduler.New(runner, cfg.Sync.Cron,
		scheduler.WithTimeout(cfg.Sync.Timeout),
		scheduler.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
		defer cancel()
		if err := sched.Stop(stopCtx); err != nil {
			logger.Warn().Err(err).Msg("Scheduler did not stop cleanly")
		}
	}()

	logger.Info().
		Str("addr", srv.Addr()).
		Str("prefix", srvCfg.PathPrefix).
		Bool("cors", srvCfg.CORSEnabled).
		Int("rate_limit", srvCfg.RateLimit).
		Bool("mock_vendor", srvCfg.MockVendor).
		Msg("Starting API server")

	return srv.Serve(ctx)
}
