package catalog

import (
	"strings"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// DefaultMavenRepository is used for artifacts that do not name a repository.
const DefaultMavenRepository = "https://maven.axonivy.com"

// MavenMetadataFile is the per-artifact version index published by Maven repositories.
const MavenMetadataFile = "maven-metadata.xml"

// DefaultArtifactType is the packaging assumed when an artifact names none.
const DefaultArtifactType = "iar"

// MavenArtifactBase returns {repoUrl}/{group/path}/{artifactId}.
func MavenArtifactBase(a domain.MavenArtifact) string {
	repo := strings.TrimRight(a.RepoURL, "/")
	if repo == "" {
		repo = DefaultMavenRepository
	}
	group := strings.ReplaceAll(a.GroupID, ".", "/")
	return repo + "/" + group + "/" + a.ArtifactID
}

// MavenMetadataURL returns the URL of the artifact's maven-metadata.xml.
func MavenMetadataURL(a domain.MavenArtifact) string {
	return MavenArtifactBase(a) + "/" + MavenMetadataFile
}

// MavenDownloadURL returns the download URL of one artifact version.
func MavenDownloadURL(a domain.MavenArtifact, version string) string {
	typ := a.Type
	if typ == "" {
		typ = DefaultArtifactType
	}
	return MavenArtifactBase(a) + "/" + version + "/" + a.ArtifactID + "-" + version + "." + typ
}

// ArtifactDisplayName returns the name shown for a downloadable artifact.
func ArtifactDisplayName(a domain.MavenArtifact) string {
	if a.Name != "" {
		return a.Name
	}
	return a.ArtifactID
}
