package domain

import "time"

// ArtifactDownload is one downloadable artifact of a product version.
type ArtifactDownload struct {
	Name         string `json:"name"`
	DownloadURL  string `json:"downloadUrl"`
	IsDependency bool   `json:"isDependency,omitempty"`
}

// ArtifactVersions caches the versions published for a product's artifacts.
type ArtifactVersions struct {
	// ProductKey is the owning product.
	ProductKey string

	// Versions lists every published version, newest first.
	Versions []string

	// Artifacts maps a version to its downloadable artifacts.
	Artifacts map[string][]ArtifactDownload

	// FetchedAt is when the versions were read from the Maven repositories.
	FetchedAt time.Time
}

// Fresh reports whether the cache entry is younger than ttl.
func (v *ArtifactVersions) Fresh(now time.Time, ttl time.Duration) bool {
	if v == nil || ttl <= 0 {
		return false
	}
	return now.Sub(v.FetchedAt) < ttl
}
