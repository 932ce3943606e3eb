package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

func TestSyncCursorStore(t *testing.T) {
	store := NewSyncCursorStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "market")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Advance(ctx, domain.SyncCursor{Repository: "market", SHA: "a1"}))
	require.NoError(t, store.Advance(ctx, domain.SyncCursor{Repository: "extensions", SHA: "b1"}))
	require.NoError(t, store.Advance(ctx, domain.SyncCursor{Repository: "market", SHA: "a2"}))

	got, err := store.Get(ctx, "market")
	require.NoError(t, err)
	assert.Equal(t, "a2", got.SHA)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "extensions", list[0].Repository)

	require.NoError(t, store.Reset(ctx, "market"))
	_, err = store.Get(ctx, "market")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestArtifactVersionStore(t *testing.T) {
	store := NewArtifactVersionStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	now := time.Now()
	require.NoError(t, store.Save(ctx, domain.ArtifactVersions{ProductKey: "a", Versions: []string{"1.0.0"}, FetchedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, store.Save(ctx, domain.ArtifactVersions{ProductKey: "b", Versions: []string{"2.0.0"}, FetchedAt: now}))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	got.Versions[0] = "mutated"
	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0"}, again.Versions)

	n, err := store.Purge(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSchedulerStore(t *testing.T) {
	store := NewSchedulerStore()
	ctx := context.Background()

	task, err := store.GetTask(ctx, domain.TaskIDCatalogSync)
	require.NoError(t, err)
	assert.Nil(t, task)

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDVersionsPurge, Interval: time.Hour}))
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDCatalogSync, Interval: time.Hour}))
	assert.ErrorIs(t, store.SaveTask(ctx, nil), domain.ErrInvalidInput)

	tasks, err := store.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, domain.TaskIDCatalogSync, tasks[0].ID)

	for i := 0; i < 4; i++ {
		require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{TaskID: domain.TaskIDCatalogSync, ItemsProcessed: i}))
	}

	history, err := store.GetTaskHistory(ctx, domain.TaskIDCatalogSync, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 3, history[0].ItemsProcessed)

	require.NoError(t, store.PruneHistory(ctx, 1))
	history, err = store.GetTaskHistory(ctx, domain.TaskIDCatalogSync, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 3, history[0].ItemsProcessed)
}
