package github

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/mod/semver"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// Ensure Repository implements the interface.
var _ driven.RemoteRepository = (*Repository)(nil)

// maxFileSize caps downloads of files too large for the contents API.
const maxFileSize = 10 << 20

// Repository reads repositories of one organisation.
type Repository struct {
	client  *Client
	owner   string
	metrics driven.SyncMetrics
}

// NewRepository creates a reader for the organisation in cfg.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Repository{client: client, owner: cfg.Organization, metrics: cfg.Metrics}, nil
}

// Owner returns the organisation the repository reads from.
func (r *Repository) Owner() string {
	return r.owner
}

// Client returns the underlying API client.
func (r *Repository) Client() *Client {
	return r.client
}

// ListTags returns the tags of a repository, oldest first.
func (r *Repository) ListTags(ctx context.Context, repository string) (_ []domain.Tag, err error) {
	defer r.observe("ListTags", time.Now(), &err)

	tags, err := r.client.ListTags(ctx, r.owner, repository)
	if err != nil {
		return nil, toDomain(err, "list tags")
	}

	// GitHub lists tags in reverse name order.
	out := make([]domain.Tag, 0, len(tags))
	for i := len(tags) - 1; i >= 0; i-- {
		out = append(out, domain.Tag{
			Name:      tags[i].GetName(),
			CommitSHA: tags[i].GetCommit().GetSHA(),
		})
	}
	sortTagsByVersion(out)
	return out, nil
}

// sortTagsByVersion orders version tags ascending. Tags that are not
// versions keep their relative order after every version tag.
func sortTagsByVersion(tags []domain.Tag) {
	slices.SortStableFunc(tags, func(a, b domain.Tag) int {
		va, vb := tagVersion(a.Name), tagVersion(b.Name)
		switch {
		case va != "" && vb != "":
			return semver.Compare(va, vb)
		case va != "":
			return -1
		case vb != "":
			return 1
		default:
			return 0
		}
	})
}

// tagVersion returns the canonical semantic version of a tag name, or "".
func tagVersion(name string) string {
	v := name
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

// GetFileContent returns a file at ref.
func (r *Repository) GetFileContent(ctx context.Context, repository, path, ref string) (_ *domain.FileContent, err error) {
	defer r.observe("GetFileContent", time.Now(), &err)

	file, _, err := r.client.GetContents(ctx, r.owner, repository, path, ref)
	if err != nil {
		return nil, toDomain(err, "get file "+path)
	}
	if file == nil {
		return nil, fmt.Errorf("get file %s: %w: path is a directory", path, domain.ErrNotFound)
	}

	content, err := r.decode(ctx, repository, ref, file)
	if err != nil {
		return nil, err
	}

	return &domain.FileContent{
		Name:        file.GetName(),
		Path:        file.GetPath(),
		SHA:         file.GetSHA(),
		DownloadURL: file.GetDownloadURL(),
		Content:     content,
	}, nil
}

// decode returns the file bytes, downloading files above the 1MB inline limit.
func (r *Repository) decode(ctx context.Context, repository, ref string, file *gh.RepositoryContent) ([]byte, error) {
	if file.GetEncoding() != "none" {
		s, err := file.GetContent()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", file.GetPath(), err)
		}
		return []byte(s), nil
	}

	logger.Debug("Downloading large file %s (%d bytes)", file.GetPath(), file.GetSize())
	rc, err := r.client.DownloadContents(ctx, r.owner, repository, file.GetPath(), ref)
	if err != nil {
		return nil, toDomain(err, "download "+file.GetPath())
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxFileSize))
	if err != nil {
		return nil, fmt.Errorf("download %s: %w: %w", file.GetPath(), domain.ErrRemoteUnavailable, err)
	}
	return data, nil
}

// GetDirectoryContent lists a directory at ref.
func (r *Repository) GetDirectoryContent(ctx context.Context, repository, path, ref string) (_ []domain.DirEntry, err error) {
	defer r.observe("GetDirectoryContent", time.Now(), &err)

	file, dir, err := r.client.GetContents(ctx, r.owner, repository, path, ref)
	if err != nil {
		return nil, toDomain(err, "list directory "+path)
	}
	if file != nil {
		return nil, fmt.Errorf("list directory %s: %w: path is a file", path, domain.ErrNotFound)
	}

	out := make([]domain.DirEntry, 0, len(dir))
	for _, c := range dir {
		entryType := domain.EntryFile
		if c.GetType() == "dir" {
			entryType = domain.EntryDir
		}
		out = append(out, domain.DirEntry{
			Name:        c.GetName(),
			Path:        c.GetPath(),
			Type:        entryType,
			SHA:         c.GetSHA(),
			Size:        c.GetSize(),
			DownloadURL: c.GetDownloadURL(),
		})
	}
	return out, nil
}

// GetCommitRange returns the file changes between two commits.
// A rename is reported as the removal of the old path and the addition of the new one.
func (r *Repository) GetCommitRange(ctx context.Context, repository, fromSHA, toSHA string) (_ []domain.ChangeEntry, err error) {
	if fromSHA == toSHA {
		return []domain.ChangeEntry{}, nil
	}
	defer r.observe("GetCommitRange", time.Now(), &err)

	files, err := r.client.CompareCommits(ctx, r.owner, repository, fromSHA, toSHA)
	if err != nil {
		return nil, toDomain(err, "compare commits")
	}

	out := make([]domain.ChangeEntry, 0, len(files))
	for _, f := range files {
		switch f.GetStatus() {
		case "added", "copied":
			out = append(out, domain.ChangeEntry{Path: f.GetFilename(), Kind: domain.ChangeAdded})
		case "removed":
			out = append(out, domain.ChangeEntry{Path: f.GetFilename(), Kind: domain.ChangeRemoved})
		case "renamed":
			out = append(out,
				domain.ChangeEntry{Path: f.GetPreviousFilename(), Kind: domain.ChangeRemoved},
				domain.ChangeEntry{Path: f.GetFilename(), PreviousPath: f.GetPreviousFilename(), Kind: domain.ChangeAdded},
			)
		case "unchanged":
		default:
			out = append(out, domain.ChangeEntry{Path: f.GetFilename(), Kind: domain.ChangeModified})
		}
	}
	return out, nil
}

// GetLatestCommit returns the head commit of the default branch.
func (r *Repository) GetLatestCommit(ctx context.Context, repository string) (_ *domain.CommitInfo, err error) {
	defer r.observe("GetLatestCommit", time.Now(), &err)

	commit, err := r.client.LatestCommit(ctx, r.owner, repository)
	if err != nil {
		return nil, toDomain(err, "latest commit")
	}

	return &domain.CommitInfo{
		SHA:     commit.GetSHA(),
		Message: commit.GetCommit().GetMessage(),
		Date:    commit.GetCommit().GetCommitter().GetDate().Time,
	}, nil
}

func (r *Repository) observe(operation string, start time.Time, err *error) {
	if r.metrics == nil {
		return
	}
	r.metrics.ObserveRemoteCall(operation, time.Since(start), *err)
}
