package catalog

import (
	"path"
	"strings"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// Reserved names inside a market repository.
const (
	ProductFolderSuffix = "-product"
	MetadataFile        = "product.json"
	LogoFile            = "logo.png"
	ReadmeFile          = "README.md"
	ImagesDir           = "images"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".svg":  true,
}

// ProductKey returns the product key for a top-level directory name.
func ProductKey(dir string) (string, bool) {
	if !strings.HasSuffix(dir, ProductFolderSuffix) || len(dir) == len(ProductFolderSuffix) {
		return "", false
	}
	return strings.TrimSuffix(dir, ProductFolderSuffix), true
}

// ProductDir returns the market directory for a product key.
func ProductDir(key string) string {
	return key + ProductFolderSuffix
}

// MetadataPath returns the metadata file path of a product directory.
func MetadataPath(dir string) string {
	return path.Join(dir, MetadataFile)
}

// LogoPath returns the logo file path of a product directory.
func LogoPath(dir string) string {
	return path.Join(dir, LogoFile)
}

// Classify maps a repository path to its artifact type and owning product.
// Paths outside a top-level product directory report ok=false.
func Classify(p string) (artifact domain.ArtifactType, productKey string, ok bool) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) < 2 {
		return "", "", false
	}
	key, ok := ProductKey(parts[0])
	if !ok {
		return "", "", false
	}

	rel := parts[1:]
	name := rel[len(rel)-1]
	switch {
	case name == MetadataFile:
		return domain.ArtifactMeta, key, true
	case name == LogoFile:
		return domain.ArtifactLogo, key, true
	case len(rel) >= 2 && rel[len(rel)-2] == ImagesDir && IsImage(name):
		return domain.ArtifactLogo, key, true
	case name == ReadmeFile:
		return domain.ArtifactReadme, key, true
	default:
		return domain.ArtifactOther, key, true
	}
}

// ClassifyChanges fills in the artifact type and product key of each entry
// and drops entries that do not belong to a product. Order is preserved.
func ClassifyChanges(entries []domain.ChangeEntry) []domain.ChangeEntry {
	out := make([]domain.ChangeEntry, 0, len(entries))
	for _, e := range entries {
		artifact, key, ok := Classify(e.Path)
		if !ok {
			continue
		}
		e.ArtifactType = artifact
		e.ProductKey = key
		out = append(out, e)
	}
	return out
}

// GroupByProduct groups classified entries per product key. Keys are
// returned in order of first appearance.
func GroupByProduct(entries []domain.ChangeEntry) ([]string, map[string][]domain.ChangeEntry) {
	var keys []string
	groups := make(map[string][]domain.ChangeEntry)
	for _, e := range entries {
		if _, seen := groups[e.ProductKey]; !seen {
			keys = append(keys, e.ProductKey)
		}
		groups[e.ProductKey] = append(groups[e.ProductKey], e)
	}
	return keys, groups
}

// IsImage reports whether a file name has a recognised image extension.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}
