package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ExtractMetadata parses a product metadata document.
//
// Fields absent from the document, or present with an unexpected JSON type,
// stay unset in the result. Only a document that is not a JSON object at all
// fails, with domain.ErrMalformedMetadata.
func ExtractMetadata(data []byte) (domain.PartialProduct, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &fields); err != nil {
		return domain.PartialProduct{}, fmt.Errorf("%w: %w", domain.ErrMalformedMetadata, err)
	}
	if fields == nil {
		return domain.PartialProduct{}, fmt.Errorf("%w: document is null", domain.ErrMalformedMetadata)
	}

	pp := domain.PartialProduct{
		Name:             stringField(fields, "name"),
		ShortDescription: stringField(fields, "shortDescription", "description"),
		Version:          stringField(fields, "version"),
		Tags:             stringsField(fields, "tags"),
		Vendor:           stringField(fields, "vendor"),
		VendorURL:        stringField(fields, "vendorUrl"),
		VendorImage:      stringField(fields, "vendorImage"),
		PlatformReview:   stringField(fields, "platformReview"),
		Cost:             stringField(fields, "cost"),
		SourceURL:        stringField(fields, "sourceUrl"),
		StatusBadgeURL:   stringField(fields, "statusBadgeUrl"),
		Language:         stringField(fields, "language"),
		Industry:         stringField(fields, "industry"),
		Validate:         boolField(fields, "validate"),
		ContactUs:        boolField(fields, "contactUs"),
		Listed:           boolField(fields, "listed"),
		RepositoryName:   stringField(fields, "repositoryName"),
		Compatibility:    stringField(fields, "compatibility"),
		Artifacts:        artifactsField(fields, "mavenArtifacts", "artifacts"),
	}

	if s := stringField(fields, "type"); s != nil {
		if t, ok := domain.ParseProductType(*s); ok && t != domain.ProductTypeAll {
			pp.Type = &t
		}
	}

	if pp.RepositoryName == nil && pp.SourceURL != nil {
		if name := RepositoryNameFromURL(*pp.SourceURL); name != "" {
			pp.RepositoryName = &name
		}
	}

	return pp, nil
}

// RepositoryNameFromURL returns the last path segment of a source URL.
func RepositoryNameFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Path == "" {
		return ""
	}
	name := path.Base(strings.TrimSuffix(u.Path, "/"))
	name = strings.TrimSuffix(name, ".git")
	if name == "." || name == "/" {
		return ""
	}
	return name
}

func stringField(fields map[string]json.RawMessage, names ...string) *string {
	for _, name := range names {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return &s
		}
	}
	return nil
}

func boolField(fields map[string]json.RawMessage, name string) *bool {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil
	}
	return &b
}

func stringsField(fields map[string]json.RawMessage, name string) []string {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

func artifactsField(fields map[string]json.RawMessage, names ...string) []domain.MavenArtifact {
	for _, name := range names {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var items []domain.MavenArtifact
		if err := json.Unmarshal(raw, &items); err != nil || items == nil {
			continue
		}
		out := make([]domain.MavenArtifact, 0, len(items))
		for _, a := range items {
			if a.GroupID == "" || a.ArtifactID == "" {
				continue
			}
			if a.Type == "" {
				a.Type = "iar"
			}
			out = append(out, a)
		}
		return out
	}
	return nil
}
