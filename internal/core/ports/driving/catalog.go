package driving

import (
	"context"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// CatalogService serves the read side of the catalog.
type CatalogService interface {
	// ListProducts returns a page of products.
	ListProducts(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)

	// GetProduct returns a product with its compatibility resolved.
	GetProduct(ctx context.Context, key string) (*domain.Product, error)

	// DeleteProduct removes a product from the catalog.
	DeleteProduct(ctx context.Context, key string) error

	// IncrementInstallCount records one installation and returns the new count.
	IncrementInstallCount(ctx context.Context, key string) (int, error)

	// MergeInstallationCounts adds external counts once per product and
	// returns how many products were merged.
	MergeInstallationCounts(ctx context.Context, counts map[string]int) (int, error)

	// GetReadme returns the README sections of a product. An empty tag reads
	// the market repository at HEAD.
	GetReadme(ctx context.Context, key, tag string) (domain.ReadmeSections, error)
}

// VersionService lists downloadable artifact versions.
type VersionService interface {
	// GetVersionsForProduct maps each selected version to its downloads.
	GetVersionsForProduct(ctx context.Context, key string, showDev bool, designerVersion string) ([]VersionArtifacts, error)
}

// VersionArtifacts is one product version with its downloads.
type VersionArtifacts struct {
	Version   string                    `json:"version"`
	Artifacts []domain.ArtifactDownload `json:"artifacts"`
}
