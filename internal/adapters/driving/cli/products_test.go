package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

func TestProductsListCmd_PrintsTable(t *testing.T) {
	catalog := &mockCatalogService{
		page: &domain.ProductPage{
			Items: []domain.Product{
				{Key: "docuware-connector", Name: "DocuWare", Type: domain.ProductTypeConnector, Vendor: "Axon Ivy AG", InstallationCount: 42, Listed: true},
				{Key: "old-demo", Name: "Old Demo", Type: domain.ProductTypeDemo},
			},
			Total:    22,
			Page:     0,
			PageSize: 20,
		},
	}
	withServices(t, Services{Catalog: catalog})

	out, err := executeCommand(t, "products", "list", "--type", "connector", "--keyword", "docu", "--page-size", "20", "--all")

	require.NoError(t, err)
	assert.Equal(t, domain.ProductType("connector"), catalog.filter.Type)
	assert.Equal(t, "docu", catalog.filter.Keyword)
	assert.Equal(t, 20, catalog.filter.PageSize)
	assert.True(t, catalog.filter.IncludeUnlisted)
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "docuware-connector")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "old-demo (unlisted)")
	assert.Contains(t, out, "Page 1 of 2 (22 products)")
}

func TestProductsListCmd_Empty(t *testing.T) {
	withServices(t, Services{Catalog: &mockCatalogService{}})

	out, err := executeCommand(t, "products", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No products found.")
}

func TestProductsListCmd_InvalidType(t *testing.T) {
	withServices(t, Services{Catalog: &mockCatalogService{err: domain.ErrInvalidInput}})

	_, err := executeCommand(t, "products", "list", "--type", "gadget")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductsGetCmd(t *testing.T) {
	compat := "10.0+"
	catalog := &mockCatalogService{
		product: &domain.Product{
			Key:                  "docuware-connector",
			Name:                 "DocuWare",
			Type:                 domain.ProductTypeConnector,
			Tags:                 []string{"document", "cloud"},
			Compatibility:        &compat,
			NewestReleaseVersion: "10.0.2",
			InstallationCount:    7,
			Listed:               true,
			UpdatedAt:            time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			Artifacts: []domain.MavenArtifact{
				{GroupID: "com.axonivy.connector.docuware", ArtifactID: "docuware-connector"},
				{GroupID: "com.axonivy.connector.docuware", ArtifactID: "docuware-connector-demo", IsDependency: true},
			},
		},
	}
	withServices(t, Services{Catalog: catalog})

	out, err := executeCommand(t, "products", "get", "docuware-connector")

	require.NoError(t, err)
	assert.Contains(t, out, "DocuWare")
	assert.Contains(t, out, "document, cloud")
	assert.Contains(t, out, "10.0+")
	assert.Contains(t, out, "10.0.2")
	assert.Contains(t, out, "2026-01-02 03:04:05")
	assert.Contains(t, out, "com.axonivy.connector.docuware:docuware-connector-demo (dependency)")
	assert.NotContains(t, out, "Vendor URL")
}

func TestProductsGetCmd_NotFound(t *testing.T) {
	withServices(t, Services{Catalog: &mockCatalogService{err: domain.ErrNotFound}})

	_, err := executeCommand(t, "products", "get", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductsGetCmd_RequiresKey(t *testing.T) {
	withServices(t, Services{Catalog: &mockCatalogService{}})

	_, err := executeCommand(t, "products", "get")

	assert.Error(t, err)
}

func TestProductsDeleteCmd(t *testing.T) {
	catalog := &mockCatalogService{}
	withServices(t, Services{Catalog: catalog})

	out, err := executeCommand(t, "products", "delete", "old-demo")

	require.NoError(t, err)
	assert.Equal(t, []string{"old-demo"}, catalog.deleted)
	assert.Contains(t, out, "Product old-demo deleted.")
}

func TestProductsCmd_NilCatalog(t *testing.T) {
	withServices(t, Services{})

	_, err := executeCommand(t, "products", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog service not configured")
}
