package driven

import (
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// SyncMetrics records reconciliation outcomes.
type SyncMetrics interface {
	// ObserveSync records a finished run.
	ObserveSync(result domain.SyncResult, err error)

	// ObserveRemoteCall records one remote repository call.
	ObserveRemoteCall(operation string, duration time.Duration, err error)

	// IncInstall records an installation count increment.
	IncInstall(productKey string)
}
