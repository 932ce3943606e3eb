package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// Ensure ProductStore implements the interface.
var _ driven.ProductStore = (*ProductStore)(nil)

// ProductStore is an in-memory implementation of driven.ProductStore.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]domain.Product

	// FailUpserts makes UpsertBatch fail with domain.ErrPersistence.
	FailUpserts bool
}

// NewProductStore creates a new in-memory product store.
func NewProductStore() *ProductStore {
	return &ProductStore{
		products: make(map[string]domain.Product),
	}
}

// Get retrieves a product by key.
func (s *ProductStore) Get(_ context.Context, key string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

// List returns one page of products matching the filter.
func (s *ProductStore) List(_ context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	filter = filter.Normalise()
	keyword := strings.ToLower(filter.Keyword)

	s.mu.RLock()
	matched := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !filter.IncludeUnlisted && !p.Listed {
			continue
		}
		if filter.Type != domain.ProductTypeAll && p.Type != filter.Type {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(p.Name), keyword) &&
			!strings.Contains(strings.ToLower(p.ShortDescription), keyword) {
			continue
		}
		matched = append(matched, *p.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := strings.ToLower(matched[i].Name), strings.ToLower(matched[j].Name)
		if a != b {
			return a < b
		}
		return matched[i].Key < matched[j].Key
	})

	page := &domain.ProductPage{
		Total:    len(matched),
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	start := filter.Page * filter.PageSize
	if start < len(matched) {
		end := min(start+filter.PageSize, len(matched))
		page.Items = matched[start:end]
	}
	return page, nil
}

// ListByRepository returns every product synced from a repository.
func (s *ProductStore) ListByRepository(_ context.Context, repository string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Product
	for _, p := range s.products {
		if p.SourceRepository == repository {
			out = append(out, *p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// UpsertBatch writes every product or none.
func (s *ProductStore) UpsertBatch(_ context.Context, products []domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailUpserts {
		return domain.ErrPersistence
	}

	for i := range products {
		next := *products[i].Clone()
		if next.UpdatedAt.IsZero() {
			next.UpdatedAt = time.Now()
		}
		if existing, ok := s.products[next.Key]; ok {
			next.InstallationCount = existing.InstallationCount
			next.SynchronizedInstallationCount = existing.SynchronizedInstallationCount
			if existing.Compatibility != nil {
				v := *existing.Compatibility
				next.Compatibility = &v
			}
		}
		s.products[next.Key] = next
	}
	return nil
}

// Delete removes a product.
func (s *ProductStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[key]; !ok {
		return domain.ErrNotFound
	}
	delete(s.products, key)
	return nil
}

// IncrementInstallCount adds one and returns the new value.
func (s *ProductStore) IncrementInstallCount(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[key]
	if !ok {
		return 0, domain.ErrNotFound
	}
	p.InstallationCount++
	s.products[key] = p
	return p.InstallationCount, nil
}

// MergeInstallationCount adds count once and marks the product merged.
func (s *ProductStore) MergeInstallationCount(_ context.Context, key string, count int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[key]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.SynchronizedInstallationCount {
		return false, nil
	}
	p.InstallationCount += count
	p.SynchronizedInstallationCount = true
	s.products[key] = p
	return true, nil
}

// SetCompatibility stores value only when the product has none yet.
func (s *ProductStore) SetCompatibility(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[key]
	if !ok || p.Compatibility != nil {
		return nil
	}
	p.Compatibility = &value
	s.products[key] = p
	return nil
}
