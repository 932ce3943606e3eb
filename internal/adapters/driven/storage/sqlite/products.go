package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// productStore implements driven.ProductStore.
type productStore struct {
	store *Store
}

var _ driven.ProductStore = (*productStore)(nil)

const productColumns = `key, market_directory, source_repository, name, short_description, type,
	version, tags, vendor, vendor_url, vendor_image, platform_review, cost, source_url,
	status_badge_url, language, industry, validate, contact_us, repository_name, artifacts,
	compatibility, installation_count, synchronized_installation_count, logo_url, listed, updated_at`

// upsertProduct never touches the installation counters of an existing row
// and only fills compatibility while it is unknown.
const upsertProduct = `
	INSERT INTO products (` + productColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		market_directory = excluded.market_directory,
		source_repository = excluded.source_repository,
		name = excluded.name,
		short_description = excluded.short_description,
		type = excluded.type,
		version = excluded.version,
		tags = excluded.tags,
		vendor = excluded.vendor,
		vendor_url = excluded.vendor_url,
		vendor_image = excluded.vendor_image,
		platform_review = excluded.platform_review,
		cost = excluded.cost,
		source_url = excluded.source_url,
		status_badge_url = excluded.status_badge_url,
		language = excluded.language,
		industry = excluded.industry,
		validate = excluded.validate,
		contact_us = excluded.contact_us,
		repository_name = excluded.repository_name,
		artifacts = excluded.artifacts,
		compatibility = COALESCE(products.compatibility, excluded.compatibility),
		logo_url = excluded.logo_url,
		listed = excluded.listed,
		updated_at = excluded.updated_at
`

// Get retrieves a product by key.
func (s *productStore) Get(ctx context.Context, key string) (*domain.Product, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE key = ?", key)
	return scanProduct(row)
}

// List returns one page of products matching the filter.
func (s *productStore) List(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	filter = filter.Normalise()

	var where []string
	var args []any
	if !filter.IncludeUnlisted {
		where = append(where, "listed = 1")
	}
	if filter.Type != domain.ProductTypeAll {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Keyword != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.Keyword)) + "%"
		where = append(where, `(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(short_description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+clause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting products: %w", err)
	}

	query := "SELECT " + productColumns + " FROM products" + clause +
		" ORDER BY name COLLATE NOCASE, key LIMIT ? OFFSET ?"
	rows, err := s.store.db.QueryContext(ctx, query,
		append(args, filter.PageSize, filter.Page*filter.PageSize)...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	items, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}

	return &domain.ProductPage{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// ListByRepository returns every product synced from a repository.
func (s *productStore) ListByRepository(ctx context.Context, repository string) ([]domain.Product, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE source_repository = ? ORDER BY key", repository)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// UpsertBatch writes products in a single transaction.
func (s *productStore) UpsertBatch(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrPersistence, err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, upsertProduct)
	if err != nil {
		return fmt.Errorf("%w: preparing upsert: %w", domain.ErrPersistence, err)
	}
	defer stmt.Close()

	for i := range products {
		args, err := productArgs(&products[i])
		if err != nil {
			return fmt.Errorf("%w: product %s: %w", domain.ErrPersistence, products[i].Key, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("%w: upserting product %s: %w", domain.ErrPersistence, products[i].Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrPersistence, err)
	}
	return nil
}

// Delete removes a product.
func (s *productStore) Delete(ctx context.Context, key string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM products WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IncrementInstallCount adds one in a single statement so concurrent
// callers never lose an update.
func (s *productStore) IncrementInstallCount(ctx context.Context, key string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, `
		UPDATE products SET installation_count = installation_count + 1
		WHERE key = ?
		RETURNING installation_count
	`, key).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("incrementing install count: %w", err)
	}
	return count, nil
}

// MergeInstallationCount adds count once and flips the merged flag.
func (s *productStore) MergeInstallationCount(ctx context.Context, key string, count int) (bool, error) {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE products
		SET installation_count = installation_count + ?, synchronized_installation_count = 1
		WHERE key = ? AND synchronized_installation_count = 0
	`, count, key)
	if err != nil {
		return false, fmt.Errorf("merging install count: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("merging install count: %w", err)
	}
	if n > 0 {
		return true, nil
	}
	if err := s.exists(ctx, key); err != nil {
		return false, err
	}
	return false, nil
}

// SetCompatibility stores value only when the product has none yet.
func (s *productStore) SetCompatibility(ctx context.Context, key, value string) error {
	_, err := s.store.db.ExecContext(ctx,
		"UPDATE products SET compatibility = ? WHERE key = ? AND compatibility IS NULL", value, key)
	if err != nil {
		return fmt.Errorf("setting compatibility: %w", err)
	}
	return nil
}

func (s *productStore) exists(ctx context.Context, key string) error {
	var one int
	err := s.store.db.QueryRowContext(ctx, "SELECT 1 FROM products WHERE key = ?", key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking product: %w", err)
	}
	return nil
}

func productArgs(p *domain.Product) ([]any, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshalling tags: %w", err)
	}
	artifacts := p.Artifacts
	if artifacts == nil {
		artifacts = []domain.MavenArtifact{}
	}
	artifactsJSON, err := json.Marshal(artifacts)
	if err != nil {
		return nil, fmt.Errorf("marshalling artifacts: %w", err)
	}

	var compatibility sql.NullString
	if p.Compatibility != nil {
		compatibility = sql.NullString{String: *p.Compatibility, Valid: true}
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	return []any{
		p.Key, p.MarketDirectory, p.SourceRepository, p.Name, p.ShortDescription, string(p.Type),
		p.Version, string(tagsJSON), p.Vendor, p.VendorURL, p.VendorImage, p.PlatformReview, p.Cost, p.SourceURL,
		p.StatusBadgeURL, p.Language, p.Industry, boolToInt(p.Validate), boolToInt(p.ContactUs), p.RepositoryName,
		string(artifactsJSON), compatibility, p.InstallationCount, boolToInt(p.SynchronizedInstallationCount),
		p.LogoURL, boolToInt(p.Listed), toMillis(updatedAt),
	}, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var productType, tagsJSON, artifactsJSON string
	var compatibility sql.NullString
	var validate, contactUs, synchronized, listed int
	var updatedAt int64

	if err := row.Scan(&p.Key, &p.MarketDirectory, &p.SourceRepository, &p.Name, &p.ShortDescription, &productType,
		&p.Version, &tagsJSON, &p.Vendor, &p.VendorURL, &p.VendorImage, &p.PlatformReview, &p.Cost, &p.SourceURL,
		&p.StatusBadgeURL, &p.Language, &p.Industry, &validate, &contactUs, &p.RepositoryName,
		&artifactsJSON, &compatibility, &p.InstallationCount, &synchronized,
		&p.LogoURL, &listed, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning product: %w", err)
	}

	p.Type = domain.ProductType(productType)
	p.Validate = validate != 0
	p.ContactUs = contactUs != 0
	p.SynchronizedInstallationCount = synchronized != 0
	p.Listed = listed != 0
	p.UpdatedAt = fromMillis(updatedAt)
	if compatibility.Valid {
		p.Compatibility = &compatibility.String
	}

	if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
		return nil, fmt.Errorf("unmarshalling tags: %w", err)
	}
	if len(p.Tags) == 0 {
		p.Tags = nil
	}
	if err := json.Unmarshal([]byte(artifactsJSON), &p.Artifacts); err != nil {
		return nil, fmt.Errorf("unmarshalling artifacts: %w", err)
	}
	if len(p.Artifacts) == 0 {
		p.Artifacts = nil
	}

	return &p, nil
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
