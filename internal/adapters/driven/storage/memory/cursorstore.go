package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// Ensure SyncCursorStore implements the interface.
var _ driven.SyncCursorStore = (*SyncCursorStore)(nil)

// SyncCursorStore is an in-memory implementation of driven.SyncCursorStore.
type SyncCursorStore struct {
	mu      sync.RWMutex
	cursors map[string]domain.SyncCursor
}

// NewSyncCursorStore creates a new in-memory cursor store.
func NewSyncCursorStore() *SyncCursorStore {
	return &SyncCursorStore{
		cursors: make(map[string]domain.SyncCursor),
	}
}

// Get returns the cursor for a repository.
func (s *SyncCursorStore) Get(_ context.Context, repository string) (*domain.SyncCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cursors[repository]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// Advance replaces the stored cursor.
func (s *SyncCursorStore) Advance(_ context.Context, cursor domain.SyncCursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[cursor.Repository] = cursor
	return nil
}

// Reset removes the cursor for a repository.
func (s *SyncCursorStore) Reset(_ context.Context, repository string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cursors, repository)
	return nil
}

// List returns every cursor ordered by repository.
func (s *SyncCursorStore) List(_ context.Context) ([]domain.SyncCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SyncCursor, 0, len(s.cursors))
	for _, c := range s.cursors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Repository < out[j].Repository })
	return out, nil
}
