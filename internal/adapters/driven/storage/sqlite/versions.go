package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// versionStore implements driven.ArtifactVersionStore.
type versionStore struct {
	store *Store
}

var _ driven.ArtifactVersionStore = (*versionStore)(nil)

// Get returns the cached versions of a product.
func (s *versionStore) Get(ctx context.Context, productKey string) (*domain.ArtifactVersions, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT product_key, versions, artifacts, fetched_at FROM artifact_versions WHERE product_key = ?", productKey)

	var v domain.ArtifactVersions
	var versionsJSON, artifactsJSON string
	var fetchedAt int64
	if err := row.Scan(&v.ProductKey, &versionsJSON, &artifactsJSON, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning artifact versions: %w", err)
	}
	if err := json.Unmarshal([]byte(versionsJSON), &v.Versions); err != nil {
		return nil, fmt.Errorf("unmarshalling versions: %w", err)
	}
	if err := json.Unmarshal([]byte(artifactsJSON), &v.Artifacts); err != nil {
		return nil, fmt.Errorf("unmarshalling artifacts: %w", err)
	}
	v.FetchedAt = fromMillis(fetchedAt)
	return &v, nil
}

// Save stores or replaces the cached versions.
func (s *versionStore) Save(ctx context.Context, v domain.ArtifactVersions) error {
	if v.Versions == nil {
		v.Versions = []string{}
	}
	if v.Artifacts == nil {
		v.Artifacts = map[string][]domain.ArtifactDownload{}
	}
	versionsJSON, err := json.Marshal(v.Versions)
	if err != nil {
		return fmt.Errorf("marshalling versions: %w", err)
	}
	artifactsJSON, err := json.Marshal(v.Artifacts)
	if err != nil {
		return fmt.Errorf("marshalling artifacts: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO artifact_versions (product_key, versions, artifacts, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(product_key) DO UPDATE SET
			versions = excluded.versions,
			artifacts = excluded.artifacts,
			fetched_at = excluded.fetched_at
	`, v.ProductKey, string(versionsJSON), string(artifactsJSON), toMillis(v.FetchedAt))
	if err != nil {
		return fmt.Errorf("saving artifact versions: %w", err)
	}
	return nil
}

// Purge removes entries fetched before the cutoff.
func (s *versionStore) Purge(ctx context.Context, before time.Time) (int, error) {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM artifact_versions WHERE fetched_at < ?", toMillis(before))
	if err != nil {
		return 0, fmt.Errorf("purging artifact versions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purging artifact versions: %w", err)
	}
	return int(n), nil
}
