package services

import (
	"context"

	"github.com/custodia-labs/marketsync/internal/catalog"
	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// CompatibilityResolver derives the version floor of a product from the
// oldest tag of its own repository.
type CompatibilityResolver struct {
	remote   driven.RemoteRepository
	products driven.ProductStore
}

// NewCompatibilityResolver creates a resolver. products may be nil, in
// which case derived values are not persisted.
func NewCompatibilityResolver(remote driven.RemoteRepository, products driven.ProductStore) *CompatibilityResolver {
	return &CompatibilityResolver{remote: remote, products: products}
}

// Resolve returns the product's compatibility. An existing value is
// returned unchanged. Missing tags, unparseable tag names and lookup
// failures all yield nil.
func (c *CompatibilityResolver) Resolve(ctx context.Context, product *domain.Product) *string {
	if product == nil {
		return nil
	}
	if product.Compatibility != nil {
		v := *product.Compatibility
		return &v
	}
	if product.RepositoryName == "" || c.remote == nil {
		return nil
	}

	tags, err := c.remote.ListTags(ctx, product.RepositoryName)
	if err != nil {
		logger.Debug("compatibility of %s: listing tags of %s: %v", product.Key, product.RepositoryName, err)
		return nil
	}
	if len(tags) == 0 {
		return nil
	}

	value, ok := catalog.ParseCompatibility(tags[0].Name)
	if !ok {
		logger.Debug("compatibility of %s: oldest tag %q has no version", product.Key, tags[0].Name)
		return nil
	}

	if c.products != nil {
		if err := c.products.SetCompatibility(ctx, product.Key, value); err != nil {
			logger.Warn("storing compatibility of %s: %v", product.Key, err)
		}
	}
	return &value
}
