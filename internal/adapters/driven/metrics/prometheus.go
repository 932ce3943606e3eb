package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// Ensure PrometheusMetrics implements the interface.
var _ driven.SyncMetrics = (*PrometheusMetrics)(nil)

// PrometheusMetrics records reconciliation metrics in a Prometheus registry.
type PrometheusMetrics struct {
	syncRuns        *prometheus.CounterVec
	syncDuration    *prometheus.HistogramVec
	productsWritten *prometheus.CounterVec
	metadataErrors  *prometheus.CounterVec
	lastSuccess     *prometheus.GaugeVec
	remoteCalls     *prometheus.HistogramVec
	installs        *prometheus.CounterVec
}

// NewPrometheusMetrics registers the collectors with registerer.
// A nil registerer uses the default registry.
func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		syncRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsync_sync_runs_total",
				Help: "Total number of sync runs by mode and status",
			},
			[]string{"repository", "mode", "status"},
		),
		syncDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketsync_sync_duration_seconds",
				Help:    "Duration of sync runs in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"repository", "mode"},
		),
		productsWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsync_products_upserted_total",
				Help: "Total number of products written by sync runs",
			},
			[]string{"repository"},
		),
		metadataErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsync_metadata_errors_total",
				Help: "Total number of product metadata files that failed to parse",
			},
			[]string{"repository"},
		),
		lastSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketsync_last_success_timestamp_seconds",
				Help: "Unix time of the last successful sync run",
			},
			[]string{"repository"},
		),
		remoteCalls: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketsync_remote_call_duration_seconds",
				Help:    "Duration of remote repository calls in seconds",
				Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation", "status"},
		),
		installs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsync_installations_total",
				Help: "Total number of recorded product installations",
			},
			[]string{"product"},
		),
	}
}

// ObserveSync records a finished run.
func (p *PrometheusMetrics) ObserveSync(result domain.SyncResult, err error) {
	mode := string(result.Mode)
	if mode == "" {
		mode = "unknown"
	}
	p.syncRuns.WithLabelValues(result.Repository, mode, status(err)).Inc()
	p.syncDuration.WithLabelValues(result.Repository, mode).Observe(result.Duration.Seconds())
	if err != nil {
		return
	}
	p.productsWritten.WithLabelValues(result.Repository).Add(float64(result.Upserted))
	p.metadataErrors.WithLabelValues(result.Repository).Add(float64(result.MetadataErrors))
	p.lastSuccess.WithLabelValues(result.Repository).Set(float64(result.StartedAt.Add(result.Duration).Unix()))
}

// ObserveRemoteCall records one remote repository call.
func (p *PrometheusMetrics) ObserveRemoteCall(operation string, duration time.Duration, err error) {
	p.remoteCalls.WithLabelValues(operation, status(err)).Observe(duration.Seconds())
}

// IncInstall records an installation count increment.
func (p *PrometheusMetrics) IncInstall(productKey string) {
	p.installs.WithLabelValues(productKey).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
