package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
)

// ListProductsInput is the input schema for the list_products tool.
type ListProductsInput struct {
	Type     string `json:"type,omitempty" jsonschema:"product type: all, connector, util, solution or demo"`
	Keyword  string `json:"keyword,omitempty" jsonschema:"matches product name or short description"`
	Page     int    `json:"page,omitempty" jsonschema:"zero-based page number"`
	PageSize int    `json:"page_size,omitempty" jsonschema:"products per page (default 20, max 100)"`
}

// ListProductsOutput is the output schema for the list_products tool.
type ListProductsOutput struct {
	Products   []ProductSummary `json:"products"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// ProductSummary is a product as shown in a listing.
type ProductSummary struct {
	Key               string `json:"key"`
	Name              string `json:"name"`
	ShortDescription  string `json:"short_description,omitempty"`
	Type              string `json:"type"`
	Vendor            string `json:"vendor,omitempty"`
	LogoURL           string `json:"logo_url,omitempty"`
	InstallationCount int    `json:"installation_count"`
}

// ProductKeyInput identifies a single product.
type ProductKeyInput struct {
	Key string `json:"key" jsonschema:"the product key, e.g. adobe-acrobat-sign-connector"`
}

// ProductOutput is the full detail of a product.
type ProductOutput struct {
	ProductSummary
	MarketDirectory      string                 `json:"market_directory"`
	SourceRepository     string                 `json:"source_repository"`
	Version              string                 `json:"version,omitempty"`
	Tags                 []string               `json:"tags,omitempty"`
	VendorURL            string                 `json:"vendor_url,omitempty"`
	VendorImage          string                 `json:"vendor_image,omitempty"`
	PlatformReview       string                 `json:"platform_review,omitempty"`
	Cost                 string                 `json:"cost,omitempty"`
	SourceURL            string                 `json:"source_url,omitempty"`
	StatusBadgeURL       string                 `json:"status_badge_url,omitempty"`
	Language             string                 `json:"language,omitempty"`
	Industry             string                 `json:"industry,omitempty"`
	RepositoryName       string                 `json:"repository_name,omitempty"`
	Compatibility        string                 `json:"compatibility,omitempty"`
	NewestReleaseVersion string                 `json:"newest_release_version,omitempty"`
	Listed               bool                   `json:"listed"`
	Artifacts            []domain.MavenArtifact `json:"artifacts,omitempty"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// InstallCountOutput is the output schema for increment_install_count.
type InstallCountOutput struct {
	Key               string `json:"key"`
	InstallationCount int    `json:"installation_count"`
}

// ReadmeInput is the input schema for the get_readme tool.
type ReadmeInput struct {
	Key string `json:"key" jsonschema:"the product key"`
	Tag string `json:"tag,omitempty" jsonschema:"release tag of the product repository; empty reads the market repository"`
}

// ReadmeOutput holds the README sections of a product.
type ReadmeOutput struct {
	Description string `json:"description"`
	Setup       string `json:"setup"`
	Demo        string `json:"demo"`
}

// VersionsInput is the input schema for the get_versions tool.
type VersionsInput struct {
	Key             string `json:"key" jsonschema:"the product key"`
	ShowDev         bool   `json:"show_dev,omitempty" jsonschema:"include snapshot and pre-release versions"`
	DesignerVersion string `json:"designer_version,omitempty" jsonschema:"restrict to releases compatible with this designer version"`
}

// VersionsOutput maps versions, newest first, to their downloads.
type VersionsOutput struct {
	Versions []driving.VersionArtifacts `json:"versions"`
}

// SyncInput is the input schema for the sync tool.
type SyncInput struct {
	Repository string `json:"repository,omitempty" jsonschema:"tracked repository to sync; empty syncs all"`
	Force      bool   `json:"force,omitempty" jsonschema:"ignore the stored cursor and run a full sync"`
}

// SyncOutput reports the runs performed by the sync tool.
type SyncOutput struct {
	Results []SyncResultOutput `json:"results"`
}

// SyncResultOutput summarises one sync run.
type SyncResultOutput struct {
	RunID          string `json:"run_id"`
	Repository     string `json:"repository"`
	Mode           string `json:"mode"`
	FromSHA        string `json:"from_sha,omitempty"`
	ToSHA          string `json:"to_sha"`
	Upserted       int    `json:"upserted"`
	Unlisted       int    `json:"unlisted"`
	Skipped        int    `json:"skipped"`
	MetadataErrors int    `json:"metadata_errors"`
	DurationMillis int64  `json:"duration_ms"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_products",
		Description: "List marketplace products, filtered by type and keyword",
	}, s.handleListProducts)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_product",
		Description: "Get the full detail of a marketplace product",
	}, s.handleGetProduct)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "increment_install_count",
		Description: "Record one installation of a product",
	}, s.handleIncrementInstallCount)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_readme",
		Description: "Get the description, setup and demo sections of a product README",
	}, s.handleGetReadme)

	if s.ports.Versions != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_versions",
			Description: "List downloadable versions of a product, newest first",
		}, s.handleGetVersions)
	}

	if s.ports.Sync != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "sync",
			Description: "Synchronise the catalog with the market repositories",
		}, s.handleSync)
	}
}

func (s *Server) handleListProducts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListProductsInput,
) (*mcp.CallToolResult, ListProductsOutput, error) {
	filter := domain.ProductFilter{
		Type:     domain.ProductType(strings.TrimSpace(input.Type)),
		Keyword:  input.Keyword,
		Page:     input.Page,
		PageSize: input.PageSize,
	}

	page, err := s.ports.Catalog.ListProducts(ctx, filter)
	if err != nil {
		return nil, ListProductsOutput{}, err
	}

	output := ListProductsOutput{
		Products:   make([]ProductSummary, len(page.Items)),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages(),
	}
	for i := range page.Items {
		output.Products[i] = productSummary(&page.Items[i])
	}

	return nil, output, nil
}

func (s *Server) handleGetProduct(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProductKeyInput,
) (*mcp.CallToolResult, ProductOutput, error) {
	product, err := s.ports.Catalog.GetProduct(ctx, input.Key)
	if err != nil {
		return nil, ProductOutput{}, err
	}
	return nil, productOutput(product), nil
}

func (s *Server) handleIncrementInstallCount(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProductKeyInput,
) (*mcp.CallToolResult, InstallCountOutput, error) {
	count, err := s.ports.Catalog.IncrementInstallCount(ctx, input.Key)
	if err != nil {
		return nil, InstallCountOutput{}, err
	}
	return nil, InstallCountOutput{Key: input.Key, InstallationCount: count}, nil
}

func (s *Server) handleGetReadme(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReadmeInput,
) (*mcp.CallToolResult, ReadmeOutput, error) {
	sections, err := s.ports.Catalog.GetReadme(ctx, input.Key, input.Tag)
	if err != nil {
		return nil, ReadmeOutput{}, err
	}
	return nil, ReadmeOutput{
		Description: sections.Description,
		Setup:       sections.Setup,
		Demo:        sections.Demo,
	}, nil
}

func (s *Server) handleGetVersions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input VersionsInput,
) (*mcp.CallToolResult, VersionsOutput, error) {
	if s.ports.Versions == nil {
		return nil, VersionsOutput{}, ErrVersionsUnavailable
	}

	versions, err := s.ports.Versions.GetVersionsForProduct(ctx, input.Key, input.ShowDev, input.DesignerVersion)
	if err != nil {
		return nil, VersionsOutput{}, err
	}
	if versions == nil {
		versions = []driving.VersionArtifacts{}
	}
	return nil, VersionsOutput{Versions: versions}, nil
}

func (s *Server) handleSync(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SyncInput,
) (*mcp.CallToolResult, SyncOutput, error) {
	if s.ports.Sync == nil {
		return nil, SyncOutput{}, ErrSyncUnavailable
	}

	repository := strings.TrimSpace(input.Repository)
	if repository == "" {
		results, err := s.ports.Sync.SyncAll(ctx)
		if err != nil {
			return nil, SyncOutput{}, err
		}
		output := SyncOutput{Results: make([]SyncResultOutput, len(results))}
		for i := range results {
			output.Results[i] = syncResultOutput(&results[i])
		}
		return nil, output, nil
	}

	result, err := s.ports.Sync.Sync(ctx, repository, driving.SyncOptions{Force: input.Force})
	if err != nil {
		return nil, SyncOutput{}, err
	}
	return nil, SyncOutput{Results: []SyncResultOutput{syncResultOutput(result)}}, nil
}

func productSummary(p *domain.Product) ProductSummary {
	return ProductSummary{
		Key:               p.Key,
		Name:              p.Name,
		ShortDescription:  p.ShortDescription,
		Type:              p.Type.String(),
		Vendor:            p.Vendor,
		LogoURL:           p.LogoURL,
		InstallationCount: p.InstallationCount,
	}
}

func productOutput(p *domain.Product) ProductOutput {
	out := ProductOutput{
		ProductSummary:       productSummary(p),
		MarketDirectory:      p.MarketDirectory,
		SourceRepository:     p.SourceRepository,
		Version:              p.Version,
		Tags:                 p.Tags,
		VendorURL:            p.VendorURL,
		VendorImage:          p.VendorImage,
		PlatformReview:       p.PlatformReview,
		Cost:                 p.Cost,
		SourceURL:            p.SourceURL,
		StatusBadgeURL:       p.StatusBadgeURL,
		Language:             p.Language,
		Industry:             p.Industry,
		RepositoryName:       p.RepositoryName,
		NewestReleaseVersion: p.NewestReleaseVersion,
		Listed:               p.Listed,
		Artifacts:            p.Artifacts,
		UpdatedAt:            p.UpdatedAt,
	}
	if p.Compatibility != nil {
		out.Compatibility = *p.Compatibility
	}
	return out
}

func syncResultOutput(r *domain.SyncResult) SyncResultOutput {
	return SyncResultOutput{
		RunID:          r.RunID,
		Repository:     r.Repository,
		Mode:           string(r.Mode),
		FromSHA:        r.FromSHA,
		ToSHA:          r.ToSHA,
		Upserted:       r.Upserted,
		Unlisted:       r.Unlisted,
		Skipped:        r.Skipped,
		MetadataErrors: r.MetadataErrors,
		DurationMillis: r.Duration.Milliseconds(),
	}
}
