package driven

import (
	"context"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// SyncCursorStore persists the last processed commit per tracked repository.
type SyncCursorStore interface {
	// Get returns the cursor for a repository.
	// Returns domain.ErrNotFound when the repository was never synced.
	Get(ctx context.Context, repository string) (*domain.SyncCursor, error)

	// Advance atomically replaces the stored cursor.
	Advance(ctx context.Context, cursor domain.SyncCursor) error

	// Reset removes the cursor so the next sync runs in full.
	Reset(ctx context.Context, repository string) error

	// List returns every stored cursor ordered by repository.
	List(ctx context.Context) ([]domain.SyncCursor, error)
}
