package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// newTestRepository points a Repository at an httptest server.
func newTestRepository(t *testing.T, mux *http.ServeMux) *Repository {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	repo, err := NewRepository(context.Background(), Config{
		Organization: "axonivy-market",
		Token:        "test-token",
		BaseURL:      server.URL,
	})
	require.NoError(t, err)
	return repo
}

func TestNewRepository_RequiresOrganization(t *testing.T) {
	_, err := NewRepository(context.Background(), Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRepository_ListTags_OldestFirstAcrossPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/axonivy-market/adobe-sign-connector/tags", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"name":"v8.0.0","commit":{"sha":"c1"}}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<http://%s%s?page=2>; rel="next"`, r.Host, r.URL.Path))
		fmt.Fprint(w, `[{"name":"v10.0.0","commit":{"sha":"c3"}},{"name":"v9.1.0","commit":{"sha":"c2"}}]`)
	})
	repo := newTestRepository(t, mux)

	tags, err := repo.ListTags(context.Background(), "adobe-sign-connector")

	require.NoError(t, err)
	assert.Equal(t, []domain.Tag{
		{Name: "v8.0.0", CommitSHA: "c1"},
		{Name: "v9.1.0", CommitSHA: "c2"},
		{Name: "v10.0.0", CommitSHA: "c3"},
	}, tags)
}

func TestRepository_ListTags_VersionOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/axonivy-market/a-trust-connector/tags", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"name":"v9.2.0"},{"name":"v10.0.0"},{"name":"latest"},{"name":"8.1.3"},{"name":"v10.0.0-m1"}]`)
	})
	repo := newTestRepository(t, mux)

	tags, err := repo.ListTags(context.Background(), "a-trust-connector")

	require.NoError(t, err)
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"8.1.3", "v9.2.0", "v10.0.0-m1", "v10.0.0", "latest"}, names)
}

func TestTagVersion(t *testing.T) {
	assert.Equal(t, "v8.1.3", tagVersion("8.1.3"))
	assert.Equal(t, "v9.0.0", tagVersion("v9"))
	assert.Empty(t, tagVersion("latest"))
	assert.Empty(t, tagVersion("release-9"))
}

func TestRepository_GetFileContent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/axonivy-market/market/contents/a-product/product.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123", r.URL.Query().Get("ref"))
		fmt.Fprintf(w, `{"type":"file","encoding":"base64","name":"product.json","path":"a-product/product.json","sha":"f1","download_url":"https://raw/a-product/product.json","content":%q}`,
			base64.StdEncoding.EncodeToString([]byte(`{"name":"A"}`)))
	})
	repo := newTestRepository(t, mux)

	file, err := repo.GetFileContent(context.Background(), "market", "a-product/product.json", "abc123")

	require.NoError(t, err)
	assert.Equal(t, `{"name":"A"}`, string(file.Content))
	assert.Equal(t, "https://raw/a-product/product.json", file.DownloadURL)
	assert.Equal(t, "product.json", file.Name)
}

func TestRepository_GetFileContent_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/axonivy-market/market/contents/a-product/logo.png", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})
	repo := newTestRepository(t, mux)

	_, err := repo.GetFileContent(context.Background(), "market", "a-product/logo.png", "")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, IsNotFound(err))
}

func TestRepository_GetFileContent_Directory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/axonivy-market/market/contents/a-product", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	repo := newTestRepository(t, mux)

	_, err := repo.GetFileContent(context.Background(), "market", "a-product", "")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_GetDirectoryContent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/axonivy-market/market/contents/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"type":"dir","name":"a-product","path":"a-product","sha":"d1"},
			{"type":"file","name":"README.md","path":"README.md","sha":"f1","size":12,"download_url":"https://raw/README.md"}
		]`)
	})
	repo := newTestRepository(t, mux)

	entries, err := repo.GetDirectoryContent(context.Background(), "market", "", "")

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].IsDir())
	assert.Equal(t, "a-product", entries[0].Name)
	assert.Equal(t, domain.EntryFile, entries[1].Type)
	assert.Equal(t, 12, entries[1].Size)
	assert.Equal(t, "https://raw/README.md", entries[1].DownloadURL)
}

func TestRepository_GetCommitRange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/axonivy-market/market/compare/old...new", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"files":[
			{"filename":"a-product/product.json","status":"modified"},
			{"filename":"b-product/logo.png","status":"added"},
			{"filename":"c-product/README.md","status":"removed"},
			{"filename":"e-product/product.json","previous_filename":"d-product/product.json","status":"renamed"},
			{"filename":"f-product/x.txt","status":"unchanged"}
		]}`)
	})
	repo := newTestRepository(t, mux)

	changes, err := repo.GetCommitRange(context.Background(), "market", "old", "new")

	require.NoError(t, err)
	assert.Equal(t, []domain.ChangeEntry{
		{Path: "a-product/product.json", Kind: domain.ChangeModified},
		{Path: "b-product/logo.png", Kind: domain.ChangeAdded},
		{Path: "c-product/README.md", Kind: domain.ChangeRemoved},
		{Path: "d-product/product.json", Kind: domain.ChangeRemoved},
		{Path: "e-product/product.json", PreviousPath: "d-product/product.json", Kind: domain.ChangeAdded},
	}, changes)
}

func TestRepository_GetCommitRange_SameSHA(t *testing.T) {
	repo := newTestRepository(t, http.NewServeMux())

	changes, err := repo.GetCommitRange(context.Background(), "market", "abc", "abc")

	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestRepository_GetCommitRange_Truncated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/axonivy-market/market/compare/old...new", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"files":[`)
		for i := 0; i < MaxCompareFiles; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"filename":"p%d-product/product.json","status":"modified"}`, i)
		}
		fmt.Fprint(w, `]}`)
	})
	repo := newTestRepository(t, mux)

	_, err := repo.GetCommitRange(context.Background(), "market", "old", "new")

	assert.ErrorIs(t, err, domain.ErrChangeSetTruncated)
}

func TestRepository_GetLatestCommit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/axonivy-market/market/commits", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		fmt.Fprint(w, `[{"sha":"head1","commit":{"message":"Update product","committer":{"date":"2024-05-01T10:00:00Z"}}}]`)
	})
	repo := newTestRepository(t, mux)

	commit, err := repo.GetLatestCommit(context.Background(), "market")

	require.NoError(t, err)
	assert.Equal(t, "head1", commit.SHA)
	assert.Equal(t, "Update product", commit.Message)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), commit.Date.UTC())
}

func TestRepository_GetLatestCommit_EmptyRepository(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/axonivy-market/market/commits", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"message":"Git Repository is empty."}`)
	})
	repo := newTestRepository(t, mux)

	_, err := repo.GetLatestCommit(context.Background(), "market")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_ServerErrorIsRemoteUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/axonivy-market/market/commits", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"message":"Bad Gateway"}`)
	})
	repo := newTestRepository(t, mux)

	_, err := repo.GetLatestCommit(context.Background(), "market")

	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_UnauthorizedIsRemoteUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/axonivy-market/market/tags", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	})
	repo := newTestRepository(t, mux)

	_, err := repo.ListTags(context.Background(), "market")

	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.True(t, IsUnauthorized(err))
}

func TestRepository_RateLimitedIsRemoteUnavailable(t *testing.T) {
	reset := time.Now().Add(time.Hour).Unix()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/axonivy-market/market/commits", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(HeaderRateLimit, "5000")
		w.Header().Set(HeaderRateRemaining, "0")
		w.Header().Set(HeaderRateReset, fmt.Sprint(reset))
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"API rate limit exceeded for user."}`)
	})
	repo := newTestRepository(t, mux)

	_, err := repo.GetLatestCommit(context.Background(), "market")

	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, 0, repo.Client().RateLimiter().Remaining())
}
