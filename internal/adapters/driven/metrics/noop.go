package metrics

import (
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// NoopMetrics discards every observation.
type NoopMetrics struct{}

// NewNoopMetrics returns metrics that record nothing.
func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveSync(_ domain.SyncResult, _ error) {}

func (n *NoopMetrics) ObserveRemoteCall(_ string, _ time.Duration, _ error) {}

func (n *NoopMetrics) IncInstall(_ string) {}

var _ driven.SyncMetrics = (*NoopMetrics)(nil)
