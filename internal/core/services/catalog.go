package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// CatalogService serves the read side of the catalog and the installation
// counters.
type CatalogService struct {
	products      driven.ProductStore
	compatibility *CompatibilityResolver
	readme        *ReadmeService
	versions      *VersionService
	metrics       driven.SyncMetrics

	// syncer, when set, is asked to catch up before every listing.
	syncer driving.SyncOrchestrator
}

// CatalogOption configures a CatalogService.
type CatalogOption func(*CatalogService)

// WithCompatibility resolves compatibility lazily in GetProduct.
func WithCompatibility(r *CompatibilityResolver) CatalogOption {
	return func(s *CatalogService) { s.compatibility = r }
}

// WithReadme enables GetReadme.
func WithReadme(r *ReadmeService) CatalogOption {
	return func(s *CatalogService) { s.readme = r }
}

// WithVersions fills NewestReleaseVersion from the version cache.
func WithVersions(v *VersionService) CatalogOption {
	return func(s *CatalogService) { s.versions = v }
}

// WithInstallMetrics records installation increments.
func WithInstallMetrics(m driven.SyncMetrics) CatalogOption {
	return func(s *CatalogService) { s.metrics = m }
}

// WithSyncOnRead syncs every tracked repository before listing products.
func WithSyncOnRead(o driving.SyncOrchestrator) CatalogOption {
	return func(s *CatalogService) { s.syncer = o }
}

// NewCatalogService creates a catalog service.
func NewCatalogService(products driven.ProductStore, opts ...CatalogOption) *CatalogService {
	s := &CatalogService{products: products}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListProducts returns a page of listed products.
func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	if filter.Type != "" {
		t, ok := domain.ParseProductType(string(filter.Type))
		if !ok {
			return nil, fmt.Errorf("%w: unknown product type %q", domain.ErrInvalidInput, filter.Type)
		}
		filter.Type = t
	}

	if s.syncer != nil {
		// The stored catalog stays authoritative when the remote is unreachable.
		if _, err := s.syncer.SyncAll(ctx); err != nil {
			logger.Warn("sync before listing: %v", err)
		}
	}

	page, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return page, nil
}

// GetProduct returns a product with compatibility resolved.
func (s *CatalogService) GetProduct(ctx context.Context, key string) (*domain.Product, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: product key is required", domain.ErrInvalidInput)
	}

	product, err := s.products.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", key, err)
	}

	if s.compatibility != nil {
		product.Compatibility = s.compatibility.Resolve(ctx, product)
	}
	if s.versions != nil {
		product.NewestReleaseVersion = s.versions.NewestRelease(ctx, key)
	}
	return product, nil
}

// DeleteProduct removes a product from the catalog.
func (s *CatalogService) DeleteProduct(ctx context.Context, key string) error {
	if err := s.products.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete product %s: %w", key, err)
	}
	logger.Info("deleted product %s", key)
	return nil
}

// IncrementInstallCount records one installation and returns the new count.
func (s *CatalogService) IncrementInstallCount(ctx context.Context, key string) (int, error) {
	count, err := s.products.IncrementInstallCount(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("increment install count of %s: %w", key, err)
	}
	if s.metrics != nil {
		s.metrics.IncInstall(key)
	}
	return count, nil
}

// MergeInstallationCounts adds each external count once. Unknown products
// are skipped. It returns the number of products merged by this call.
func (s *CatalogService) MergeInstallationCounts(ctx context.Context, counts map[string]int) (int, error) {
	merged := 0
	var errs []error
	for key, count := range counts {
		if count < 0 {
			errs = append(errs, fmt.Errorf("%w: negative count %d for %s", domain.ErrInvalidInput, count, key))
			continue
		}
		ok, err := s.products.MergeInstallationCount(ctx, key, count)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			logger.Debug("merge install count: unknown product %s", key)
		case err != nil:
			errs = append(errs, fmt.Errorf("merge install count of %s: %w", key, err))
		case ok:
			merged++
		}
	}
	return merged, errors.Join(errs...)
}

// GetReadme returns the README sections of a product. Content failures
// yield empty sections; only an unknown product is an error.
func (s *CatalogService) GetReadme(ctx context.Context, key, tag string) (domain.ReadmeSections, error) {
	product, err := s.products.Get(ctx, key)
	if err != nil {
		return domain.ReadmeSections{}, fmt.Errorf("get product %s: %w", key, err)
	}
	if s.readme == nil {
		return domain.ReadmeSections{}, nil
	}
	return s.readme.Sections(ctx, product, strings.TrimSpace(tag)), nil
}
