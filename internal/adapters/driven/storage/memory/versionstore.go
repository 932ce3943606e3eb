package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// Ensure ArtifactVersionStore implements the interface.
var _ driven.ArtifactVersionStore = (*ArtifactVersionStore)(nil)

// ArtifactVersionStore is an in-memory implementation of driven.ArtifactVersionStore.
type ArtifactVersionStore struct {
	mu      sync.RWMutex
	entries map[string]domain.ArtifactVersions
}

// NewArtifactVersionStore creates a new in-memory version cache.
func NewArtifactVersionStore() *ArtifactVersionStore {
	return &ArtifactVersionStore{
		entries: make(map[string]domain.ArtifactVersions),
	}
}

// Get returns the cached versions of a product.
func (s *ArtifactVersionStore) Get(_ context.Context, productKey string) (*domain.ArtifactVersions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[productKey]
	if !ok {
		return nil, domain.ErrNotFound
	}
	v.Versions = slices.Clone(v.Versions)
	v.Artifacts = maps.Clone(v.Artifacts)
	return &v, nil
}

// Save stores or replaces the cached versions.
func (s *ArtifactVersionStore) Save(_ context.Context, v domain.ArtifactVersions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.Versions = slices.Clone(v.Versions)
	v.Artifacts = maps.Clone(v.Artifacts)
	s.entries[v.ProductKey] = v
	return nil
}

// Purge removes entries fetched before the cutoff.
func (s *ArtifactVersionStore) Purge(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, v := range s.entries {
		if v.FetchedAt.Before(before) {
			delete(s.entries, key)
			n++
		}
	}
	return n, nil
}
