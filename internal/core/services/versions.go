package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/custodia-labs/marketsync/internal/catalog"
	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// Ensure VersionService implements the interface.
var _ driving.VersionService = (*VersionService)(nil)

// snapshotSuffix marks Maven development builds.
const snapshotSuffix = "-SNAPSHOT"

// VersionService lists the downloadable versions of a product's artifacts.
// Versions are read from the Maven repositories and cached per product.
type VersionService struct {
	products driven.ProductStore
	cache    driven.ArtifactVersionStore
	fetcher  driven.ArtifactFetcher
	ttl      time.Duration
	now      func() time.Time
}

// NewVersionService creates a version service. A zero ttl disables caching
// of fresh lookups; a stale entry is still served when fetching fails.
func NewVersionService(
	products driven.ProductStore,
	cache driven.ArtifactVersionStore,
	fetcher driven.ArtifactFetcher,
	ttl time.Duration,
) *VersionService {
	return &VersionService{
		products: products,
		cache:    cache,
		fetcher:  fetcher,
		ttl:      ttl,
		now:      time.Now,
	}
}

// GetVersionsForProduct returns the selected versions newest first, each
// with its downloadable artifacts. showDev includes development versions;
// designerVersion restricts the list to released versions of the same
// major line that are not newer than the designer.
func (s *VersionService) GetVersionsForProduct(
	ctx context.Context,
	key string,
	showDev bool,
	designerVersion string,
) ([]driving.VersionArtifacts, error) {
	var designer *semver.Version
	if designerVersion = strings.TrimSpace(designerVersion); designerVersion != "" {
		v, err := semver.NewVersion(designerVersion)
		if err != nil {
			return nil, fmt.Errorf("%w: designer version %q: %w", domain.ErrInvalidInput, designerVersion, err)
		}
		designer = v
	}

	product, err := s.products.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	entry, err := s.versions(ctx, product)
	if err != nil {
		return nil, err
	}

	selected := FilterVersions(entry.Versions, showDev, designer)
	out := make([]driving.VersionArtifacts, 0, len(selected))
	for _, v := range selected {
		out = append(out, driving.VersionArtifacts{
			Version:   v,
			Artifacts: entry.Artifacts[v],
		})
	}
	return out, nil
}

// NewestRelease returns the newest cached release version of a product,
// or empty when none is cached.
func (s *VersionService) NewestRelease(ctx context.Context, key string) string {
	if s.cache == nil {
		return ""
	}
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		return ""
	}
	return NewestRelease(entry.Versions)
}

// Purge drops cache entries older than the cache TTL.
func (s *VersionService) Purge(ctx context.Context) (int, error) {
	if s.cache == nil || s.ttl <= 0 {
		return 0, nil
	}
	return s.cache.Purge(ctx, s.now().Add(-s.ttl))
}

// versions returns the cached entry when fresh, otherwise refetches it.
func (s *VersionService) versions(ctx context.Context, product *domain.Product) (*domain.ArtifactVersions, error) {
	var cached *domain.ArtifactVersions
	if s.cache != nil {
		entry, err := s.cache.Get(ctx, product.Key)
		switch {
		case err == nil:
			cached = entry
		case !errors.Is(err, domain.ErrNotFound):
			logger.Warn("reading version cache of %s: %v", product.Key, err)
		}
	}
	if cached.Fresh(s.now(), s.ttl) {
		return cached, nil
	}

	if s.fetcher == nil {
		if cached != nil {
			return cached, nil
		}
		return nil, fmt.Errorf("artifact fetcher: %w", domain.ErrNotConfigured)
	}

	fetched, err := s.fetch(ctx, product)
	if err != nil {
		if cached != nil {
			logger.Warn("refreshing versions of %s, serving cached: %v", product.Key, err)
			return cached, nil
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Save(ctx, *fetched); err != nil {
			logger.Warn("caching versions of %s: %v", product.Key, err)
		}
	}
	return fetched, nil
}

// fetch reads every artifact's versions. The product's own artifacts define
// the version list; dependencies are attached to versions they publish.
func (s *VersionService) fetch(ctx context.Context, product *domain.Product) (*domain.ArtifactVersions, error) {
	entry := &domain.ArtifactVersions{
		ProductKey: product.Key,
		Artifacts:  make(map[string][]domain.ArtifactDownload),
		FetchedAt:  s.now(),
	}

	primaries := 0
	for _, a := range product.Artifacts {
		if !a.IsDependency {
			primaries++
		}
	}

	seen := make(map[string]bool)
	for _, a := range product.Artifacts {
		versions, err := s.fetcher.FetchVersions(ctx, a)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("no maven metadata for %s:%s", a.GroupID, a.ArtifactID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fetch versions of %s:%s: %w", a.GroupID, a.ArtifactID, err)
		}

		definesVersions := !a.IsDependency || primaries == 0
		for _, v := range versions {
			if definesVersions && !seen[v] {
				seen[v] = true
				entry.Versions = append(entry.Versions, v)
			}
			entry.Artifacts[v] = append(entry.Artifacts[v], domain.ArtifactDownload{
				Name:         catalog.ArtifactDisplayName(a),
				DownloadURL:  catalog.MavenDownloadURL(a, v),
				IsDependency: a.IsDependency,
			})
		}
	}

	// Drop downloads of versions no primary artifact publishes.
	for v := range entry.Artifacts {
		if !seen[v] {
			delete(entry.Artifacts, v)
		}
	}

	SortVersionsDesc(entry.Versions)
	return entry, nil
}

// IsReleaseVersion reports whether v is a released (non-development) version.
func IsReleaseVersion(v string) bool {
	if strings.HasSuffix(strings.ToUpper(v), snapshotSuffix) {
		return false
	}
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return false
	}
	return parsed.Prerelease() == ""
}

// FilterVersions selects versions for display, keeping their order.
func FilterVersions(versions []string, showDev bool, designer *semver.Version) []string {
	out := make([]string, 0, len(versions))
	for _, v := range versions {
		if showDev && designer == nil {
			out = append(out, v)
			continue
		}
		if !IsReleaseVersion(v) {
			continue
		}
		if designer != nil {
			parsed, _ := semver.NewVersion(v)
			if parsed.Major() != designer.Major() || parsed.GreaterThan(designer) {
				continue
			}
		}
		out = append(out, v)
	}
	return out
}

// NewestRelease returns the newest release in a newest-first list.
func NewestRelease(versions []string) string {
	for _, v := range versions {
		if IsReleaseVersion(v) {
			return v
		}
	}
	return ""
}

// SortVersionsDesc orders versions newest first. Versions that are not
// semantic versions sort last, in reverse lexical order.
func SortVersionsDesc(versions []string) {
	slices.SortStableFunc(versions, func(a, b string) int {
		va, errA := semver.NewVersion(a)
		vb, errB := semver.NewVersion(b)
		switch {
		case errA == nil && errB == nil:
			return vb.Compare(va)
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		default:
			return strings.Compare(b, a)
		}
	})
}
