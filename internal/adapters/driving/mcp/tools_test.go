package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
)

func TestServer_handleListProducts(t *testing.T) {
	ctx := context.Background()

	t.Run("returns a page of products", func(t *testing.T) {
		catalog := &mockCatalogService{
			page: &domain.ProductPage{
				Items: []domain.Product{
					{
						Key:               "a-trust-connector",
						Name:              "A-Trust",
						ShortDescription:  "Qualified signatures",
						Type:              domain.ProductTypeConnector,
						Vendor:            "Axon Ivy AG",
						LogoURL:           "https://raw.example.com/logo.png",
						InstallationCount: 12,
					},
				},
				Total:    21,
				Page:     1,
				PageSize: 20,
			},
		}
		server, err := NewServer(&Ports{Catalog: catalog})
		require.NoError(t, err)

		input := ListProductsInput{Type: "connectors", Keyword: "sign", Page: 1}
		_, output, err := server.handleListProducts(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, domain.ProductType("connectors"), catalog.filter.Type)
		assert.Equal(t, "sign", catalog.filter.Keyword)
		assert.Equal(t, 1, catalog.filter.Page)
		require.Len(t, output.Products, 1)
		assert.Equal(t, "a-trust-connector", output.Products[0].Key)
		assert.Equal(t, "connector", output.Products[0].Type)
		assert.Equal(t, 12, output.Products[0].InstallationCount)
		assert.Equal(t, 21, output.Total)
		assert.Equal(t, 2, output.TotalPages)
	})

	t.Run("empty catalog returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Catalog: &mockCatalogService{}})
		require.NoError(t, err)

		_, output, err := server.handleListProducts(ctx, nil, ListProductsInput{})

		require.NoError(t, err)
		assert.NotNil(t, output.Products)
		assert.Empty(t, output.Products)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		catalog := &mockCatalogService{err: domain.ErrInvalidInput}
		server, err := NewServer(&Ports{Catalog: catalog})
		require.NoError(t, err)

		_, _, err = server.handleListProducts(ctx, nil, ListProductsInput{Type: "gadgets"})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleGetProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("maps product detail", func(t *testing.T) {
		compat := "10.0+"
		updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		catalog := &mockCatalogService{
			product: &domain.Product{
				Key:                  "docuware-connector",
				Name:                 "DocuWare",
				Type:                 domain.ProductTypeConnector,
				MarketDirectory:      "market/connector/docuware",
				SourceRepository:     "market",
				Version:              "10.0.2",
				Tags:                 []string{"document"},
				Compatibility:        &compat,
				NewestReleaseVersion: "10.0.2",
				Listed:               true,
				UpdatedAt:            updated,
				Artifacts: []domain.MavenArtifact{{
					GroupID:    "com.axonivy.connector.docuware",
					ArtifactID: "docuware-connector",
					Type:       "iar",
				}},
			},
		}
		server, err := NewServer(&Ports{Catalog: catalog})
		require.NoError(t, err)

		_, output, err := server.handleGetProduct(ctx, nil, ProductKeyInput{Key: "docuware-connector"})

		require.NoError(t, err)
		assert.Equal(t, "docuware-connector", output.Key)
		assert.Equal(t, "market/connector/docuware", output.MarketDirectory)
		assert.Equal(t, "10.0+", output.Compatibility)
		assert.Equal(t, "10.0.2", output.NewestReleaseVersion)
		assert.True(t, output.Listed)
		assert.Equal(t, updated, output.UpdatedAt)
		require.Len(t, output.Artifacts, 1)
		assert.Equal(t, "docuware-connector", output.Artifacts[0].ArtifactID)
	})

	t.Run("unknown compatibility is empty", func(t *testing.T) {
		catalog := &mockCatalogService{product: &domain.Product{Key: "demo"}}
		server, err := NewServer(&Ports{Catalog: catalog})
		require.NoError(t, err)

		_, output, err := server.handleGetProduct(ctx, nil, ProductKeyInput{Key: "demo"})

		require.NoError(t, err)
		assert.Empty(t, output.Compatibility)
	})

	t.Run("returns not found", func(t *testing.T) {
		catalog := &mockCatalogService{err: domain.ErrNotFound}
		server, err := NewServer(&Ports{Catalog: catalog})
		require.NoError(t, err)

		_, _, err = server.handleGetProduct(ctx, nil, ProductKeyInput{Key: "missing"})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestServer_handleIncrementInstallCount(t *testing.T) {
	ctx := context.Background()

	catalog := &mockCatalogService{count: 43}
	server, err := NewServer(&Ports{Catalog: catalog})
	require.NoError(t, err)

	_, output, err := server.handleIncrementInstallCount(ctx, nil, ProductKeyInput{Key: "demo"})

	require.NoError(t, err)
	assert.Equal(t, InstallCountOutput{Key: "demo", InstallationCount: 43}, output)
}

func TestServer_handleGetReadme(t *testing.T) {
	ctx := context.Background()

	catalog := &mockCatalogService{
		readme: domain.ReadmeSections{
			Description: "What it does",
			Setup:       "How to set up",
		},
	}
	server, err := NewServer(&Ports{Catalog: catalog})
	require.NoError(t, err)

	_, output, err := server.handleGetReadme(ctx, nil, ReadmeInput{Key: "demo", Tag: "v10.0.0"})

	require.NoError(t, err)
	assert.Equal(t, "v10.0.0", catalog.readTag)
	assert.Equal(t, "What it does", output.Description)
	assert.Equal(t, "How to set up", output.Setup)
	assert.Empty(t, output.Demo)
}

func TestServer_handleGetVersions(t *testing.T) {
	ctx := context.Background()

	t.Run("passes filters and returns versions", func(t *testing.T) {
		versions := &mockVersionService{
			versions: []driving.VersionArtifacts{
				{
					Version: "10.0.2",
					Artifacts: []domain.ArtifactDownload{{
						Name:        "DocuWare Connector (iar)",
						DownloadURL: "https://maven.example.com/docuware-connector-10.0.2.iar",
					}},
				},
			},
		}
		server, err := NewServer(&Ports{Catalog: &mockCatalogService{}, Versions: versions})
		require.NoError(t, err)

		input := VersionsInput{Key: "docuware", ShowDev: true, DesignerVersion: "10.0.5"}
		_, output, err := server.handleGetVersions(ctx, nil, input)

		require.NoError(t, err)
		assert.True(t, versions.showDev)
		assert.Equal(t, "10.0.5", versions.designer)
		require.Len(t, output.Versions, 1)
		assert.Equal(t, "10.0.2", output.Versions[0].Version)
	})

	t.Run("no versions is an empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Catalog: &mockCatalogService{}, Versions: &mockVersionService{}})
		require.NoError(t, err)

		_, output, err := server.handleGetVersions(ctx, nil, VersionsInput{Key: "docuware"})

		require.NoError(t, err)
		assert.NotNil(t, output.Versions)
	})

	t.Run("without version service", func(t *testing.T) {
		server, err := NewServer(&Ports{Catalog: &mockCatalogService{}})
		require.NoError(t, err)

		_, _, err = server.handleGetVersions(ctx, nil, VersionsInput{Key: "docuware"})

		assert.ErrorIs(t, err, ErrVersionsUnavailable)
	})
}

func TestServer_handleSync(t *testing.T) {
	ctx := context.Background()

	t.Run("syncs one repository", func(t *testing.T) {
		orch := &mockSyncOrchestrator{
			result: &domain.SyncResult{
				RunID:      "run-1",
				Repository: "market",
				Mode:       domain.SyncModeIncremental,
				FromSHA:    "aaa",
				ToSHA:      "bbb",
				Upserted:   2,
				Duration:   1500 * time.Millisecond,
			},
		}
		server, err := NewServer(&Ports{Catalog: &mockCatalogService{}, Sync: orch})
		require.NoError(t, err)

		_, output, err := server.handleSync(ctx, nil, SyncInput{Repository: " market ", Force: true})

		require.NoError(t, err)
		assert.Equal(t, []string{"market"}, orch.synced)
		assert.True(t, orch.opts.Force)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "incremental", output.Results[0].Mode)
		assert.Equal(t, 2, output.Results[0].Upserted)
		assert.Equal(t, int64(1500), output.Results[0].DurationMillis)
	})

	t.Run("empty repository syncs all", func(t *testing.T) {
		orch := &mockSyncOrchestrator{
			results: []domain.SyncResult{
				{Repository: "market", Mode: domain.SyncModeNoop},
				{Repository: "market-demo", Mode: domain.SyncModeFull},
			},
		}
		server, err := NewServer(&Ports{Catalog: &mockCatalogService{}, Sync: orch})
		require.NoError(t, err)

		_, output, err := server.handleSync(ctx, nil, SyncInput{})

		require.NoError(t, err)
		assert.True(t, orch.syncedAll)
		assert.Len(t, output.Results, 2)
	})

	t.Run("returns sync failure", func(t *testing.T) {
		orch := &mockSyncOrchestrator{err: domain.ErrRemoteUnavailable}
		server, err := NewServer(&Ports{Catalog: &mockCatalogService{}, Sync: orch})
		require.NoError(t, err)

		_, _, err = server.handleSync(ctx, nil, SyncInput{Repository: "market"})

		assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	})

	t.Run("without orchestrator", func(t *testing.T) {
		server, err := NewServer(&Ports{Catalog: &mockCatalogService{}})
		require.NoError(t, err)

		_, _, err = server.handleSync(ctx, nil, SyncInput{})

		assert.True(t, errors.Is(err, ErrSyncUnavailable))
	})
}
