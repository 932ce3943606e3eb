package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskIDs(t *testing.T) {
	assert.Equal(t, "catalog-sync", TaskIDCatalogSync)
	assert.Equal(t, "versions-purge", TaskIDVersionsPurge)
}

func TestScheduledTask_ZeroValue(t *testing.T) {
	var task ScheduledTask

	assert.False(t, task.Enabled)
	assert.True(t, task.NextRun.IsZero())
	assert.Equal(t, time.Duration(0), task.Interval)
}
