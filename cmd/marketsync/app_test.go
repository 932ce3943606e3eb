package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

func TestNewApp_WiresServices(t *testing.T) {
	a, err := newApp(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	s := a.Services()
	assert.NotNil(t, s.Catalog)
	assert.NotNil(t, s.Versions)
	assert.NotNil(t, s.Sync)
	assert.NotNil(t, s.Cursors)
	assert.NotNil(t, s.Settings)

	serve := a.ServeConfig()
	assert.NotNil(t, serve.Scheduler)
	assert.NotNil(t, serve.Gatherer)
	assert.NotNil(t, serve.Watcher)
	assert.NotNil(t, serve.Reload)
}

func TestApp_ReloadAppliesSettings(t *testing.T) {
	ctx := context.Background()
	a, err := newApp(ctx, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	require.NoError(t, a.settings.Set("github.repositories", "market,market-demo"))
	require.NoError(t, a.settings.Set("sync.interval", "2h"))

	require.NoError(t, a.reload(ctx))

	task, err := a.store.SchedulerStore().GetTask(ctx, domain.TaskIDCatalogSync)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, 2*time.Hour, task.Interval)
}

func TestApp_GathersMetrics(t *testing.T) {
	a, err := newApp(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	families, err := a.registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
