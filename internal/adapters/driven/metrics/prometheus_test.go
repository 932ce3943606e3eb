package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

func TestNewPrometheusMetrics_UsesProvidedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewPrometheusMetrics(registry)
	m.ObserveSync(domain.SyncResult{
		Repository: "market",
		Mode:       domain.SyncModeFull,
		Upserted:   3,
		StartedAt:  time.Unix(1700000000, 0),
		Duration:   2 * time.Second,
	}, nil)
	m.ObserveRemoteCall("GetLatestCommit", 10*time.Millisecond, nil)
	m.IncInstall("adobe-sign")

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}

	assert.Contains(t, names, "marketsync_sync_runs_total")
	assert.Contains(t, names, "marketsync_sync_duration_seconds")
	assert.Contains(t, names, "marketsync_products_upserted_total")
	assert.Contains(t, names, "marketsync_last_success_timestamp_seconds")
	assert.Contains(t, names, "marketsync_remote_call_duration_seconds")
	assert.Contains(t, names, "marketsync_installations_total")
}

func TestPrometheusMetrics_ObserveSync(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry())

	m.ObserveSync(domain.SyncResult{Repository: "market", Mode: domain.SyncModeIncremental, Upserted: 4, MetadataErrors: 1}, nil)
	m.ObserveSync(domain.SyncResult{Repository: "market", Mode: domain.SyncModeIncremental}, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncRuns.WithLabelValues("market", "incremental", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncRuns.WithLabelValues("market", "incremental", "error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.productsWritten.WithLabelValues("market")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metadataErrors.WithLabelValues("market")))
}

func TestPrometheusMetrics_IncInstall(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry())

	m.IncInstall("a")
	m.IncInstall("a")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.installs.WithLabelValues("a")))
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoopMetrics()
	m.ObserveSync(domain.SyncResult{}, nil)
	m.ObserveRemoteCall("x", time.Second, nil)
	m.IncInstall("x")
}

func TestHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewPrometheusMetrics(registry).IncInstall("a")

	server := httptest.NewServer(Handler(registry))
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `marketsync_installations_total{product="a"} 1`)

	resp, err = http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
