package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/marketsync/internal/adapters/driven/metrics"
	"github.com/custodia-labs/marketsync/internal/adapters/driving/mcp"
	"github.com/custodia-labs/marketsync/internal/logger"
)

var (
	serveAddr        string
	serveMetricsAddr string
	serveStdio       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled syncs and the MCP server",
	Long: `Run the catalog service until interrupted.

The scheduler syncs every tracked repository at sync.interval and purges
stale version cache entries. The MCP server exposes the catalog to AI
assistants over streamable HTTP, or over stdio with --stdio. Prometheus
metrics are served at /metrics on serve.metrics_addr.

Changes to config.toml are picked up while running.

Examples:
  # HTTP mode on the configured address
  marketsync serve

  # Stdio mode, for desktop assistants
  marketsync serve --stdio`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "MCP listen address (default serve.addr)")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "Metrics listen address (default serve.metrics_addr)")
	serveCmd.Flags().BoolVar(&serveStdio, "stdio", false, "Serve MCP over stdio instead of HTTP")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}
	if serveConfig == nil {
		return errors.New("serve not configured")
	}

	addr, metricsAddr := serveAddr, serveMetricsAddr
	if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		if !cmd.Flags().Changed("addr") {
			addr = settings.Serve.Addr
		}
		if !cmd.Flags().Changed("metrics-addr") {
			metricsAddr = settings.Serve.MetricsAddr
		}
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Catalog:  catalogService,
		Versions: versionService,
		Sync:     syncOrchestrator,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if serveConfig.Scheduler != nil {
		g.Go(func() error {
			err := serveConfig.Scheduler.Start(gctx)
			if stopErr := serveConfig.Scheduler.Stop(); stopErr != nil {
				logger.Warn("stopping scheduler: %v", stopErr)
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if metricsAddr != "" && serveConfig.Gatherer != nil {
		g.Go(func() error {
			return metrics.Serve(gctx, metricsAddr, serveConfig.Gatherer, logger.Zap())
		})
	}

	if serveConfig.Watcher != nil && serveConfig.Reload != nil {
		g.Go(func() error {
			err := serveConfig.Watcher.Watch(gctx, func() {
				if err := serveConfig.Reload(gctx); err != nil {
					logger.Warn("applying changed settings: %v", err)
					return
				}
				logger.Info("settings reloaded")
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	switch {
	case serveStdio:
		g.Go(func() error {
			// The client closing stdin ends the whole process.
			err := server.Run(gctx)
			stop()
			return err
		})
	case addr != "":
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
		g.Go(func() error {
			return server.RunHTTP(gctx, addr)
		})
	}

	return g.Wait()
}
