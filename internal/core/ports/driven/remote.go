package driven

import (
	"context"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// RemoteRepository reads the content and history of repositories hosted by
// the remote provider. Implementations are read-only.
//
// Errors wrap domain.ErrRemoteUnavailable for transport, authentication and
// rate limit failures, and domain.ErrNotFound for missing paths or refs.
type RemoteRepository interface {
	// ListTags returns the tags of a repository, oldest first.
	ListTags(ctx context.Context, repository string) ([]domain.Tag, error)

	// GetFileContent returns a file at ref. An empty ref means the default branch.
	GetFileContent(ctx context.Context, repository, path, ref string) (*domain.FileContent, error)

	// GetDirectoryContent lists a directory at ref. An empty path is the root.
	GetDirectoryContent(ctx context.Context, repository, path, ref string) ([]domain.DirEntry, error)

	// GetCommitRange returns the file changes between two commits.
	// Equal SHAs yield an empty slice.
	GetCommitRange(ctx context.Context, repository, fromSHA, toSHA string) ([]domain.ChangeEntry, error)

	// GetLatestCommit returns the head commit of the default branch.
	GetLatestCommit(ctx context.Context, repository string) (*domain.CommitInfo, error)
}
