package driving

import (
	"context"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// SyncOptions controls a single sync run.
type SyncOptions struct {
	// Force ignores the stored cursor and runs a full sync.
	Force bool
}

// SyncOrchestrator reconciles the catalog with tracked repositories.
type SyncOrchestrator interface {
	// Sync reconciles one repository.
	Sync(ctx context.Context, repository string, opts SyncOptions) (*domain.SyncResult, error)

	// SyncAll reconciles every tracked repository concurrently.
	SyncAll(ctx context.Context) ([]domain.SyncResult, error)

	// Status returns the current state of a repository.
	Status(ctx context.Context, repository string) (*SyncStatus, error)
}

// SyncStatus represents the current state of a repository's reconciliation.
type SyncStatus struct {
	// Repository identifies the tracked repository.
	Repository string

	// Running indicates if a sync is currently in progress.
	Running bool

	// Phase is the current reconciler phase.
	Phase domain.SyncPhase

	// Cursor is the last processed commit, nil if never synced.
	Cursor *domain.SyncCursor

	// LastResult is the outcome of the most recent finished run.
	LastResult *domain.SyncResult

	// LastError is the error of the most recent failed run.
	LastError string
}

// CursorService inspects and resets sync cursors.
type CursorService interface {
	// ListCursors returns every stored cursor ordered by repository.
	ListCursors(ctx context.Context) ([]domain.SyncCursor, error)

	// ResetCursor drops the cursor of a repository so the next sync runs
	// in full. It waits for a running sync of that repository to finish.
	ResetCursor(ctx context.Context, repository string) error
}
