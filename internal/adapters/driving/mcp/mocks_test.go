package mcp

import (
	"context"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
)

// mockCatalogService is a mock implementation of driving.CatalogService.
type mockCatalogService struct {
	page    *domain.ProductPage
	product *domain.Product
	count   int
	readme  domain.ReadmeSections
	err     error
	filter  domain.ProductFilter
	readTag string
	deleted []string
	merged  map[string]int
}

func (m *mockCatalogService) ListProducts(_ context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	m.filter = filter
	if m.err != nil {
		return nil, m.err
	}
	if m.page == nil {
		return &domain.ProductPage{PageSize: domain.DefaultPageSize}, nil
	}
	return m.page, nil
}

func (m *mockCatalogService) GetProduct(_ context.Context, _ string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

func (m *mockCatalogService) DeleteProduct(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return m.err
}

func (m *mockCatalogService) IncrementInstallCount(_ context.Context, _ string) (int, error) {
	return m.count, m.err
}

func (m *mockCatalogService) MergeInstallationCounts(_ context.Context, counts map[string]int) (int, error) {
	m.merged = counts
	return len(counts), m.err
}

func (m *mockCatalogService) GetReadme(_ context.Context, _, tag string) (domain.ReadmeSections, error) {
	m.readTag = tag
	return m.readme, m.err
}

// mockVersionService is a mock implementation of driving.VersionService.
type mockVersionService struct {
	versions []driving.VersionArtifacts
	err      error
	showDev  bool
	designer string
}

func (m *mockVersionService) GetVersionsForProduct(
	_ context.Context,
	_ string,
	showDev bool,
	designerVersion string,
) ([]driving.VersionArtifacts, error) {
	m.showDev = showDev
	m.designer = designerVersion
	return m.versions, m.err
}

// mockSyncOrchestrator is a mock implementation of driving.SyncOrchestrator.
type mockSyncOrchestrator struct {
	result    *domain.SyncResult
	results   []domain.SyncResult
	err       error
	synced    []string
	opts      driving.SyncOptions
	syncedAll bool
}

func (m *mockSyncOrchestrator) Sync(_ context.Context, repository string, opts driving.SyncOptions) (*domain.SyncResult, error) {
	m.synced = append(m.synced, repository)
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockSyncOrchestrator) SyncAll(_ context.Context) ([]domain.SyncResult, error) {
	m.syncedAll = true
	return m.results, m.err
}

func (m *mockSyncOrchestrator) Status(_ context.Context, repository string) (*driving.SyncStatus, error) {
	return &driving.SyncStatus{Repository: repository, Phase: domain.PhaseIdle}, m.err
}
