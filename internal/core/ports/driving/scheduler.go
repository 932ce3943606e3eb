package driving

import "context"

// Scheduler runs periodic catalog syncs and cache maintenance.
type Scheduler interface {
	// Start runs scheduled tasks until Stop is called or ctx is done.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error
}
