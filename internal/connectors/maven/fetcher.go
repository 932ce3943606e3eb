package maven

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/marketsync/internal/catalog"
	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// DefaultTimeout bounds a single metadata request.
const DefaultTimeout = 15 * time.Second

// maxMetadataSize caps the metadata document read from a repository.
const maxMetadataSize = 4 << 20

// Ensure Fetcher implements the interface.
var _ driven.ArtifactFetcher = (*Fetcher)(nil)

// Fetcher reads artifact versions from maven-metadata.xml documents.
type Fetcher struct {
	client  *http.Client
	metrics driven.SyncMetrics
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithMetrics records request durations.
func WithMetrics(m driven.SyncMetrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// metadata is the subset of maven-metadata.xml that carries versions.
type metadata struct {
	XMLName    xml.Name `xml:"metadata"`
	GroupID    string   `xml:"groupId"`
	ArtifactID string   `xml:"artifactId"`
	Versioning struct {
		Latest   string   `xml:"latest"`
		Release  string   `xml:"release"`
		Versions []string `xml:"versions>version"`
	} `xml:"versioning"`
}

// FetchVersions returns the versions listed in the artifact's metadata.
func (f *Fetcher) FetchVersions(ctx context.Context, artifact domain.MavenArtifact) (versions []string, err error) {
	if artifact.GroupID == "" || artifact.ArtifactID == "" {
		return nil, fmt.Errorf("%w: artifact requires groupId and artifactId", domain.ErrInvalidInput)
	}

	start := time.Now()
	defer func() {
		if f.metrics != nil {
			f.metrics.ObserveRemoteCall("maven_metadata", time.Since(start), err)
		}
	}()

	url := catalog.MavenMetadataURL(artifact)
	logger.Debug("fetching maven metadata %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: fetching %s: %w", domain.ErrRemoteUnavailable, url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", url, domain.ErrNotFound)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: fetching %s: status %d", domain.ErrRemoteUnavailable, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", domain.ErrRemoteUnavailable, url, err)
	}

	return parseVersions(body)
}

func parseVersions(body []byte) ([]string, error) {
	var md metadata
	if err := xml.Unmarshal(body, &md); err != nil {
		return nil, fmt.Errorf("%w: parsing maven metadata: %w", domain.ErrRemoteUnavailable, err)
	}

	seen := make(map[string]bool, len(md.Versioning.Versions))
	versions := make([]string, 0, len(md.Versioning.Versions))
	for _, v := range md.Versioning.Versions {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		versions = append(versions, v)
	}
	return versions, nil
}

// IsNotFound reports whether err means the artifact has no metadata.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
