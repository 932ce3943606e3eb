// Package metrics exposes reconciliation metrics to Prometheus.
package metrics
