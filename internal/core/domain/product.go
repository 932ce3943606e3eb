package domain

import (
	"reflect"
	"strings"
	"time"
)

// ProductType classifies a catalog entry.
type ProductType string

// Known product types. ProductTypeAll is a filter value only.
const (
	ProductTypeAll       ProductType = "all"
	ProductTypeConnector ProductType = "connector"
	ProductTypeUtility   ProductType = "util"
	ProductTypeSolution  ProductType = "solution"
	ProductTypeDemo      ProductType = "demo"
)

// ParseProductType maps a user supplied filter value onto a ProductType.
// Plural and long forms ("connectors", "utilities") are accepted. An empty
// string means ProductTypeAll.
func ParseProductType(s string) (ProductType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ProductTypeAll, true
	case "connector", "connectors":
		return ProductTypeConnector, true
	case "util", "utils", "utility", "utilities":
		return ProductTypeUtility, true
	case "solution", "solutions":
		return ProductTypeSolution, true
	case "demo", "demos":
		return ProductTypeDemo, true
	default:
		return "", false
	}
}

// String returns the string representation.
func (t ProductType) String() string {
	return string(t)
}

// MavenArtifact references a deployable artifact published for a product.
type MavenArtifact struct {
	// Key is an optional identifier used by the metadata file.
	Key string `json:"key,omitempty"`

	// Name is the human-readable artifact name.
	Name string `json:"name,omitempty"`

	// RepoURL is the Maven repository base URL.
	RepoURL string `json:"repoUrl"`

	// GroupID is the Maven group identifier.
	GroupID string `json:"groupId"`

	// ArtifactID is the Maven artifact identifier.
	ArtifactID string `json:"artifactId"`

	// Type is the packaging type (e.g. "iar", "zip").
	Type string `json:"type,omitempty"`

	// IsDependency marks artifacts that are not the product itself.
	IsDependency bool `json:"isDependency,omitempty"`
}

// Product is a single catalog entry. Identity is Key; two products are the
// same product when their keys match, regardless of any other field.
type Product struct {
	// Key is the slug derived from the product directory name.
	Key string

	// MarketDirectory is the directory in the market repository.
	MarketDirectory string

	// SourceRepository is the tracked repository the record was synced from.
	SourceRepository string

	Name             string
	ShortDescription string
	Type             ProductType
	Version          string
	Tags             []string
	Vendor           string
	VendorURL        string
	VendorImage      string
	PlatformReview   string
	Cost             string
	SourceURL        string
	StatusBadgeURL   string
	Language         string
	Industry         string
	Validate         bool
	ContactUs        bool

	// RepositoryName is the product's own repository within the organisation.
	RepositoryName string

	// Artifacts are the Maven artifacts listed in the metadata file.
	Artifacts []MavenArtifact

	// Compatibility is the derived version floor (e.g. "8.1+"). Nil when unknown.
	Compatibility *string

	// InstallationCount never decreases.
	InstallationCount int

	// SynchronizedInstallationCount is set once an external count snapshot
	// has been merged into InstallationCount.
	SynchronizedInstallationCount bool

	// LogoURL is the download URL of the product logo, empty when absent.
	LogoURL string

	// Listed controls visibility in listings.
	Listed bool

	// NewestReleaseVersion is the newest non-development artifact version seen.
	NewestReleaseVersion string

	// UpdatedAt is when the record was last written by a sync.
	UpdatedAt time.Time
}

// Equal reports whether p and other identify the same product.
func (p *Product) Equal(other *Product) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.Key == other.Key
}

// Clone returns a deep copy of the product.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	if p.Tags != nil {
		c.Tags = append([]string(nil), p.Tags...)
	}
	if p.Artifacts != nil {
		c.Artifacts = append([]MavenArtifact(nil), p.Artifacts...)
	}
	if p.Compatibility != nil {
		v := *p.Compatibility
		c.Compatibility = &v
	}
	return &c
}

// PartialProduct carries the fields found in a metadata file. Nil fields were
// absent from the document and must not overwrite existing values.
type PartialProduct struct {
	Name             *string
	ShortDescription *string
	Type             *ProductType
	Version          *string
	Tags             []string
	Vendor           *string
	VendorURL        *string
	VendorImage      *string
	PlatformReview   *string
	Cost             *string
	SourceURL        *string
	StatusBadgeURL   *string
	Language         *string
	Industry         *string
	Validate         *bool
	ContactUs        *bool
	Listed           *bool
	RepositoryName   *string
	Compatibility    *string
	Artifacts        []MavenArtifact
}

// Apply overwrites the fields of p that are present in the partial record.
func (pp *PartialProduct) Apply(p *Product) {
	setString(&p.Name, pp.Name)
	setString(&p.ShortDescription, pp.ShortDescription)
	if pp.Type != nil {
		p.Type = *pp.Type
	}
	setString(&p.Version, pp.Version)
	if pp.Tags != nil {
		p.Tags = append([]string(nil), pp.Tags...)
	}
	setString(&p.Vendor, pp.Vendor)
	setString(&p.VendorURL, pp.VendorURL)
	setString(&p.VendorImage, pp.VendorImage)
	setString(&p.PlatformReview, pp.PlatformReview)
	setString(&p.Cost, pp.Cost)
	setString(&p.SourceURL, pp.SourceURL)
	setString(&p.StatusBadgeURL, pp.StatusBadgeURL)
	setString(&p.Language, pp.Language)
	setString(&p.Industry, pp.Industry)
	setString(&p.RepositoryName, pp.RepositoryName)
	if pp.Validate != nil {
		p.Validate = *pp.Validate
	}
	if pp.ContactUs != nil {
		p.ContactUs = *pp.ContactUs
	}
	if pp.Listed != nil {
		p.Listed = *pp.Listed
	}
	if pp.Compatibility != nil && p.Compatibility == nil {
		v := *pp.Compatibility
		p.Compatibility = &v
	}
	if pp.Artifacts != nil {
		p.Artifacts = append([]MavenArtifact(nil), pp.Artifacts...)
	}
}

// ClearMetadata resets every metadata-derived field of p and unlists it.
// Key, logo, install counts and derived compatibility are kept.
func ClearMetadata(p *Product) {
	p.Name = ""
	p.ShortDescription = ""
	p.Type = ""
	p.Version = ""
	p.Tags = nil
	p.Vendor = ""
	p.VendorURL = ""
	p.VendorImage = ""
	p.PlatformReview = ""
	p.Cost = ""
	p.SourceURL = ""
	p.StatusBadgeURL = ""
	p.Language = ""
	p.Industry = ""
	p.Validate = false
	p.ContactUs = false
	p.RepositoryName = ""
	p.Artifacts = nil
	p.Listed = false
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// ProductFilter selects a page of products.
type ProductFilter struct {
	// Type restricts results to one product type. Empty or "all" matches every type.
	Type ProductType

	// Keyword matches name or short description, case-insensitively.
	Keyword string

	// Page is zero-based.
	Page int

	// PageSize defaults to DefaultPageSize when zero.
	PageSize int

	// IncludeUnlisted returns products with Listed=false as well.
	IncludeUnlisted bool
}

// DefaultPageSize is used when a filter does not set PageSize.
const DefaultPageSize = 20

// MaxPageSize caps PageSize.
const MaxPageSize = 100

// Normalise applies defaults and bounds to the filter.
func (f ProductFilter) Normalise() ProductFilter {
	if f.Type == "" {
		f.Type = ProductTypeAll
	}
	if f.Page < 0 {
		f.Page = 0
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	f.Keyword = strings.TrimSpace(f.Keyword)
	return f
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Items    []Product
	Total    int
	Page     int
	PageSize int
}

// TotalPages returns the number of pages for the listing.
func (p *ProductPage) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// SameContent reports whether p and other carry the same synced content.
// Sync bookkeeping, installation counters and derived fields are ignored.
func (p *Product) SameContent(other *Product) bool {
	if p == nil || other == nil {
		return p == other
	}
	a, b := *p.Clone(), *other.Clone()
	for _, x := range []*Product{&a, &b} {
		x.UpdatedAt = time.Time{}
		x.InstallationCount = 0
		x.SynchronizedInstallationCount = false
		x.Compatibility = nil
		x.NewestReleaseVersion = ""
		if len(x.Tags) == 0 {
			x.Tags = nil
		}
		if len(x.Artifacts) == 0 {
			x.Artifacts = nil
		}
	}
	return reflect.DeepEqual(a, b)
}
