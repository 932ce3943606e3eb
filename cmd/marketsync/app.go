package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/custodia-labs/marketsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/marketsync/internal/adapters/driven/metrics"
	"github.com/custodia-labs/marketsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/marketsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/marketsync/internal/connectors/github"
	"github.com/custodia-labs/marketsync/internal/connectors/maven"
	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/services"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// app holds the wired services of one process.
type app struct {
	configStore *file.ConfigStore
	settings    *services.SettingsService
	store       *sqlite.Store
	registry    *prometheus.Registry

	reconciler *services.CatalogReconciler
	catalog    *services.CatalogService
	versions   *services.VersionService
	scheduler  *services.Scheduler
}

// newApp builds every service from the settings in home. An empty home
// uses ~/.marketsync.
func newApp(ctx context.Context, home string) (*app, error) {
	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return nil, fmt.Errorf("opening settings: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	applyLogSettings(settings)

	dataDir := settings.Storage.DataDir
	if dataDir == "" {
		dataDir = home
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	syncMetrics := metrics.NewPrometheusMetrics(registry)

	ghConfig := github.ConfigFromSettings(settings.GitHub)
	ghConfig.Metrics = syncMetrics
	remote, err := github.NewRepository(ctx, ghConfig)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating github client: %w", err)
	}

	products := store.ProductStore()
	fetcher := maven.NewFetcher(maven.WithMetrics(syncMetrics))

	reconciler := services.NewCatalogReconciler(remote, products, store.SyncCursorStore(), syncMetrics,
		reconcilerConfig(settings))
	versionService := services.NewVersionService(products, store.ArtifactVersionStore(), fetcher,
		settings.Versions.CacheTTL)

	opts := []services.CatalogOption{
		services.WithCompatibility(services.NewCompatibilityResolver(remote, products)),
		services.WithReadme(services.NewReadmeService(remote, firstRepository(settings))),
		services.WithVersions(versionService),
		services.WithInstallMetrics(syncMetrics),
	}
	if settings.Sync.OnRead {
		opts = append(opts, services.WithSyncOnRead(reconciler))
	}

	scheduler := services.NewScheduler(schedulerConfig(settings), store.SchedulerStore(), reconciler, versionService)

	return &app{
		configStore: configStore,
		settings:    settingsService,
		store:       store,
		registry:    registry,
		reconciler:  reconciler,
		catalog:     services.NewCatalogService(products, opts...),
		versions:    versionService,
		scheduler:   scheduler,
	}, nil
}

// Services returns the driving ports used by the CLI.
func (a *app) Services() cli.Services {
	return cli.Services{
		Catalog:  a.catalog,
		Versions: a.versions,
		Sync:     a.reconciler,
		Cursors:  a.reconciler,
		Settings: a.settings,
	}
}

// ServeConfig returns the collaborators of the serve command.
func (a *app) ServeConfig() *cli.ServeConfig {
	return &cli.ServeConfig{
		Scheduler: a.scheduler,
		Gatherer:  a.registry,
		Watcher:   a.configStore,
		Reload:    a.reload,
	}
}

// reload applies changed settings to the running services. The GitHub
// client, data directory and sync-on-read keep their startup values.
func (a *app) reload(ctx context.Context) error {
	settings, err := a.settings.Get()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	applyLogSettings(settings)
	a.reconciler.Configure(reconcilerConfig(settings))
	return a.scheduler.Reconfigure(ctx, schedulerConfig(settings))
}

// Close releases the database.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("closing database: %v", err)
	}
}

func applyLogSettings(settings *domain.Settings) {
	if err := logger.SetFormat(logger.Format(settings.Log.Format)); err != nil {
		logger.Warn("log format: %v", err)
	}
	logger.SetVerbose(settings.Log.Verbose)
}

func reconcilerConfig(settings *domain.Settings) services.ReconcilerConfig {
	return services.ReconcilerConfig{
		Repositories: settings.GitHub.Repositories,
		Timeout:      settings.Sync.Timeout,
	}
}

func schedulerConfig(settings *domain.Settings) services.SchedulerConfig {
	return services.SchedulerConfig{
		SyncInterval:  settings.Sync.Interval,
		PurgeInterval: settings.Versions.CacheTTL,
	}
}

func firstRepository(settings *domain.Settings) string {
	if len(settings.GitHub.Repositories) == 0 {
		return ""
	}
	return settings.GitHub.Repositories[0]
}
