package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// cursorStore implements driven.SyncCursorStore.
type cursorStore struct {
	store *Store
}

var _ driven.SyncCursorStore = (*cursorStore)(nil)

// Get returns the cursor for a repository.
func (s *cursorStore) Get(ctx context.Context, repository string) (*domain.SyncCursor, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT repository, sha, processed_at FROM sync_cursors WHERE repository = ?", repository)

	var c domain.SyncCursor
	var processedAt int64
	if err := row.Scan(&c.Repository, &c.SHA, &processedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning sync cursor: %w", err)
	}
	c.ProcessedAt = fromMillis(processedAt)
	return &c, nil
}

// Advance atomically replaces the stored cursor.
func (s *cursorStore) Advance(ctx context.Context, cursor domain.SyncCursor) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_cursors (repository, sha, processed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(repository) DO UPDATE SET
			sha = excluded.sha,
			processed_at = excluded.processed_at
	`, cursor.Repository, cursor.SHA, toMillis(cursor.ProcessedAt))
	if err != nil {
		return fmt.Errorf("%w: advancing sync cursor: %w", domain.ErrPersistence, err)
	}
	return nil
}

// Reset removes the cursor so the next sync runs in full.
func (s *cursorStore) Reset(ctx context.Context, repository string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM sync_cursors WHERE repository = ?", repository)
	if err != nil {
		return fmt.Errorf("resetting sync cursor: %w", err)
	}
	return nil
}

// List returns every stored cursor ordered by repository.
func (s *cursorStore) List(ctx context.Context) ([]domain.SyncCursor, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT repository, sha, processed_at FROM sync_cursors ORDER BY repository")
	if err != nil {
		return nil, fmt.Errorf("querying sync cursors: %w", err)
	}
	defer rows.Close()

	var out []domain.SyncCursor
	for rows.Next() {
		var c domain.SyncCursor
		var processedAt int64
		if err := rows.Scan(&c.Repository, &c.SHA, &processedAt); err != nil {
			return nil, fmt.Errorf("scanning sync cursor: %w", err)
		}
		c.ProcessedAt = fromMillis(processedAt)
		out = append(out, c)
	}
	return out, rows.Err()
}
