package services

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// fakeRemote is an in-memory git host. Each repository holds snapshots of
// its file tree keyed by commit SHA; the last committed snapshot is HEAD.
type fakeRemote struct {
	mu    sync.Mutex
	heads map[string]string
	trees map[string]map[string]map[string]string
	tags  map[string][]domain.Tag

	// Injected failures.
	latestErr error
	rangeErr  error
	fileErrs  map[string]error

	// gate, when set, blocks GetLatestCommit until closed.
	gate chan struct{}

	latestCalls int
	rangeCalls  int
	fileCalls   int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		heads:    make(map[string]string),
		trees:    make(map[string]map[string]map[string]string),
		tags:     make(map[string][]domain.Tag),
		fileErrs: make(map[string]error),
	}
}

// commit records a full tree for repo at sha and moves HEAD to it.
func (f *fakeRemote) commit(repo, sha string, files map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.trees[repo] == nil {
		f.trees[repo] = make(map[string]map[string]string)
	}
	tree := make(map[string]string, len(files))
	for p, c := range files {
		tree[p] = c
	}
	f.trees[repo][sha] = tree
	f.heads[repo] = sha
}

// amend derives a new commit from HEAD by applying changes. An empty
// content removes the file.
func (f *fakeRemote) amend(repo, sha string, changes map[string]string) {
	f.mu.Lock()
	next := make(map[string]string)
	for p, c := range f.trees[repo][f.heads[repo]] {
		next[p] = c
	}
	f.mu.Unlock()

	for p, c := range changes {
		if c == "" {
			delete(next, p)
			continue
		}
		next[p] = c
	}
	f.commit(repo, sha, next)
}

func (f *fakeRemote) setTags(repo string, names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tags := make([]domain.Tag, 0, len(names))
	for _, n := range names {
		tags = append(tags, domain.Tag{Name: n, CommitSHA: "sha-" + n})
	}
	f.tags[repo] = tags
}

func (f *fakeRemote) failFile(p string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fileErrs[p] = err
}

func (f *fakeRemote) counts() (latest, rng, files int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latestCalls, f.rangeCalls, f.fileCalls
}

func (f *fakeRemote) tree(repo, ref string) (map[string]string, string, error) {
	if ref == "" {
		ref = f.heads[repo]
	}
	tree, ok := f.trees[repo][ref]
	if !ok {
		return nil, ref, fmt.Errorf("ref %s of %s: %w", ref, repo, domain.ErrNotFound)
	}
	return tree, ref, nil
}

func downloadURL(repo, ref, p string) string {
	return "https://raw.example.com/" + repo + "/" + ref + "/" + p
}

func (f *fakeRemote) ListTags(ctx context.Context, repository string) ([]domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tags, ok := f.tags[repository]
	if !ok {
		return nil, fmt.Errorf("repository %s: %w", repository, domain.ErrNotFound)
	}
	return append([]domain.Tag(nil), tags...), nil
}

func (f *fakeRemote) GetFileContent(ctx context.Context, repository, p, ref string) (*domain.FileContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fileCalls++

	if err := f.fileErrs[p]; err != nil {
		return nil, err
	}
	tree, ref, err := f.tree(repository, ref)
	if err != nil {
		return nil, err
	}
	content, ok := tree[p]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", p, domain.ErrNotFound)
	}
	return &domain.FileContent{
		Name:        path.Base(p),
		Path:        p,
		SHA:         fmt.Sprintf("blob-%d", len(content)),
		DownloadURL: downloadURL(repository, ref, p),
		Content:     []byte(content),
	}, nil
}

func (f *fakeRemote) GetDirectoryContent(ctx context.Context, repository, dir, ref string) ([]domain.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	tree, ref, err := f.tree(repository, ref)
	if err != nil {
		return nil, err
	}

	prefix := ""
	if dir != "" {
		prefix = strings.TrimSuffix(dir, "/") + "/"
	}
	seen := make(map[string]bool)
	var entries []domain.DirEntry
	for p := range tree {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		name, _, nested := strings.Cut(rest, "/")
		if seen[name] {
			continue
		}
		seen[name] = true
		entry := domain.DirEntry{Name: name, Path: prefix + name, Type: domain.EntryFile}
		if nested {
			entry.Type = domain.EntryDir
		} else {
			entry.DownloadURL = downloadURL(repository, ref, prefix+name)
			entry.Size = len(tree[p])
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 && dir != "" {
		return nil, fmt.Errorf("directory %s: %w", dir, domain.ErrNotFound)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (f *fakeRemote) GetCommitRange(ctx context.Context, repository, fromSHA, toSHA string) ([]domain.ChangeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rangeCalls++

	if f.rangeErr != nil {
		return nil, f.rangeErr
	}
	from, _, err := f.tree(repository, fromSHA)
	if err != nil {
		return nil, err
	}
	to, _, err := f.tree(repository, toSHA)
	if err != nil {
		return nil, err
	}

	var changes []domain.ChangeEntry
	for p, c := range to {
		old, existed := from[p]
		switch {
		case !existed:
			changes = append(changes, domain.ChangeEntry{Path: p, Kind: domain.ChangeAdded})
		case old != c:
			changes = append(changes, domain.ChangeEntry{Path: p, Kind: domain.ChangeModified})
		}
	}
	for p := range from {
		if _, ok := to[p]; !ok {
			changes = append(changes, domain.ChangeEntry{Path: p, Kind: domain.ChangeRemoved})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

func (f *fakeRemote) GetLatestCommit(ctx context.Context, repository string) (*domain.CommitInfo, error) {
	f.mu.Lock()
	f.latestCalls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	head, ok := f.heads[repository]
	if !ok {
		return nil, fmt.Errorf("repository %s: %w", repository, domain.ErrNotFound)
	}
	return &domain.CommitInfo{SHA: head, Date: time.Now()}, nil
}

// fakeMetrics records metric calls.
type fakeMetrics struct {
	mu       sync.Mutex
	syncs    []domain.SyncResult
	syncErrs []error
	installs map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{installs: make(map[string]int)}
}

func (m *fakeMetrics) ObserveSync(result domain.SyncResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncs = append(m.syncs, result)
	m.syncErrs = append(m.syncErrs, err)
}

func (m *fakeMetrics) ObserveRemoteCall(string, time.Duration, error) {}

func (m *fakeMetrics) IncInstall(productKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installs[productKey]++
}

// fakeFetcher serves Maven versions per artifact ID.
type fakeFetcher struct {
	mu       sync.Mutex
	versions map[string][]string
	errs     map[string]error
	calls    int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{versions: make(map[string][]string), errs: make(map[string]error)}
}

func (f *fakeFetcher) FetchVersions(_ context.Context, a domain.MavenArtifact) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[a.ArtifactID]; err != nil {
		return nil, err
	}
	v, ok := f.versions[a.ArtifactID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]string(nil), v...), nil
}

// productJSON renders a minimal metadata document.
func productJSON(name, typ string, extra ...string) string {
	fields := []string{
		fmt.Sprintf(`"name": %q`, name),
		fmt.Sprintf(`"type": %q`, typ),
	}
	fields = append(fields, extra...)
	return "{" + strings.Join(fields, ", ") + "}"
}
