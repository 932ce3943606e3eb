package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marketsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marketsync/internal/core/domain"
)

func seedProduct(t *testing.T, store *memory.ProductStore, p domain.Product) {
	t.Helper()
	require.NoError(t, store.UpsertBatch(context.Background(), []domain.Product{p}))
}

func TestCompatibilityResolver_DerivesFromOldestTag(t *testing.T) {
	remote := newFakeRemote()
	remote.setTags("a-trust-connector", "v8.1.3", "v9.0.0", "v10.0.0")
	products := memory.NewProductStore()
	seedProduct(t, products, domain.Product{Key: "a-trust", RepositoryName: "a-trust-connector", Listed: true})

	resolver := NewCompatibilityResolver(remote, products)
	p, err := products.Get(context.Background(), "a-trust")
	require.NoError(t, err)

	got := resolver.Resolve(context.Background(), p)

	require.NotNil(t, got)
	assert.Equal(t, "8.1+", *got)

	stored, err := products.Get(context.Background(), "a-trust")
	require.NoError(t, err)
	require.NotNil(t, stored.Compatibility)
	assert.Equal(t, "8.1+", *stored.Compatibility)
}

func TestCompatibilityResolver_KeepsExistingValue(t *testing.T) {
	remote := newFakeRemote()
	remote.setTags("a-trust-connector", "v8.1.3")
	existing := "2.0"

	got := NewCompatibilityResolver(remote, nil).Resolve(context.Background(), &domain.Product{
		Key:            "a-trust",
		RepositoryName: "a-trust-connector",
		Compatibility:  &existing,
	})

	require.NotNil(t, got)
	assert.Equal(t, "2.0", *got)
}

func TestCompatibilityResolver_Unknown(t *testing.T) {
	remote := newFakeRemote()
	remote.setTags("no-tags")
	remote.setTags("odd-tags", "release-candidate")

	tests := []struct {
		name string
		repo string
	}{
		{"no repository", ""},
		{"no tags", "no-tags"},
		{"unparseable tag", "odd-tags"},
		{"lookup failure", "does-not-exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewCompatibilityResolver(remote, nil)
			got := resolver.Resolve(context.Background(), &domain.Product{Key: "x", RepositoryName: tt.repo})
			assert.Nil(t, got)
		})
	}

	assert.Nil(t, NewCompatibilityResolver(remote, nil).Resolve(context.Background(), nil))
}
