package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// ArtifactVersionStore caches artifact versions per product.
type ArtifactVersionStore interface {
	// Get returns the cached versions. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, productKey string) (*domain.ArtifactVersions, error)

	// Save stores or replaces the cached versions.
	Save(ctx context.Context, versions domain.ArtifactVersions) error

	// Purge removes entries fetched before the cutoff and returns how many.
	Purge(ctx context.Context, before time.Time) (int, error)
}

// ArtifactFetcher reads published versions of a Maven artifact.
type ArtifactFetcher interface {
	// FetchVersions returns every version listed in the artifact's
	// repository metadata, in repository order.
	// Returns domain.ErrNotFound when the artifact has no metadata.
	FetchVersions(ctx context.Context, artifact domain.MavenArtifact) ([]string, error)
}
