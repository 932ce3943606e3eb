// Package cli provides the marketsync command line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

var (
	verboseFlag   bool
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "marketsync",
	Short: "Keep the marketplace product catalog in sync with GitHub",
	Long: `marketsync mirrors the product folders of the market repositories into a
local catalog. It syncs incrementally from the last processed commit, serves
products, README sections and artifact versions, and tracks installations.`,
	SilenceUsage:      true,
	PersistentPreRunE: configureLogging,
}

// Services holds the driving ports used by the commands.
type Services struct {
	Catalog  driving.CatalogService
	Versions driving.VersionService
	Sync     driving.SyncOrchestrator
	Cursors  driving.CursorService
	Settings driving.SettingsService
}

// ServeConfig holds the long running collaborators of the serve command.
type ServeConfig struct {
	Scheduler driving.Scheduler

	// Gatherer backs the /metrics endpoint. Nil disables it.
	Gatherer prometheus.Gatherer

	// Watcher reports settings file changes. Optional.
	Watcher driven.ConfigWatcher

	// Reload applies changed settings to the running services.
	Reload func(ctx context.Context) error
}

var (
	catalogService   driving.CatalogService
	versionService   driving.VersionService
	syncOrchestrator driving.SyncOrchestrator
	cursorService    driving.CursorService
	settingsService  driving.SettingsService
	serveConfig      *ServeConfig
)

// Configure injects the services used by the commands.
func Configure(s Services) {
	catalogService = s.Catalog
	versionService = s.Versions
	syncOrchestrator = s.Sync
	cursorService = s.Cursors
	settingsService = s.Settings
}

// SetServeConfig sets the collaborators of the serve command.
func SetServeConfig(config *ServeConfig) {
	serveConfig = config
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format: console or json")
}

// configureLogging applies log settings, then flag overrides.
func configureLogging(cmd *cobra.Command, _ []string) error {
	verbose := verboseFlag
	format := domain.LogFormat(logFormatFlag)

	if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			logger.Warn("reading settings: %v", err)
		} else {
			if !cmd.Flags().Changed("verbose") {
				verbose = settings.Log.Verbose
			}
			if format == "" {
				format = settings.Log.Format
			}
		}
	}

	if format != "" {
		if !format.IsValid() {
			return fmt.Errorf("%w: unknown log format %q", domain.ErrInvalidInput, format)
		}
		if err := logger.SetFormat(logger.Format(format)); err != nil {
			return err
		}
	}
	logger.SetVerbose(verbose)
	return nil
}
