package driven

import (
	"context"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// ProductStore persists catalog products.
type ProductStore interface {
	// Get retrieves a product by key. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, key string) (*domain.Product, error)

	// List returns one page of products matching the filter.
	List(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)

	// ListByRepository returns every product synced from a repository.
	ListByRepository(ctx context.Context, repository string) ([]domain.Product, error)

	// UpsertBatch writes products in a single transaction. Either every
	// product is written or none is. Installation counters are never
	// overwritten and compatibility is only set when currently unknown.
	UpsertBatch(ctx context.Context, products []domain.Product) error

	// Delete removes a product. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, key string) error

	// IncrementInstallCount atomically adds one to the installation count
	// and returns the new value. Returns domain.ErrNotFound if absent.
	IncrementInstallCount(ctx context.Context, key string) (int, error)

	// MergeInstallationCount adds count to a product whose external count
	// was never merged, and marks it merged. Reports whether a merge happened.
	MergeInstallationCount(ctx context.Context, key string, count int) (bool, error)

	// SetCompatibility stores value only when the product has none yet.
	SetCompatibility(ctx context.Context, key, value string) error
}
