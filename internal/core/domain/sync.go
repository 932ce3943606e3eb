package domain

import "time"

// SyncCursor records the last commit of a tracked repository that the
// catalog fully reflects. It only moves forward, except when an operator
// explicitly resets it to force a full resync.
type SyncCursor struct {
	// Repository is the tracked repository name.
	Repository string

	// SHA is the last processed commit.
	SHA string

	// ProcessedAt is when the commit was processed.
	ProcessedAt time.Time
}

// ChangeKind is the status of a file between two commits.
type ChangeKind string

// Change kinds reported by the remote repository.
const (
	ChangeAdded    ChangeKind = "ADDED"
	ChangeModified ChangeKind = "MODIFIED"
	ChangeRemoved  ChangeKind = "REMOVED"
)

// ArtifactType classifies a changed file within a product directory.
type ArtifactType string

// Artifact types recognised by the classifier.
const (
	ArtifactMeta   ArtifactType = "META"
	ArtifactLogo   ArtifactType = "LOGO"
	ArtifactReadme ArtifactType = "README"
	ArtifactOther  ArtifactType = "OTHER"
)

// ChangeEntry is one file-level diff result between two commits.
// It is produced per sync run and never persisted.
type ChangeEntry struct {
	// Path is the repository-relative file path.
	Path string

	// PreviousPath is set for renames.
	PreviousPath string

	// Kind is the change status.
	Kind ChangeKind

	// ArtifactType is filled in by classification.
	ArtifactType ArtifactType

	// ProductKey is the owning product, filled in by classification.
	ProductKey string
}

// CommitInfo describes a single commit.
type CommitInfo struct {
	SHA     string
	Message string
	Date    time.Time
}

// Tag is a named ref in a repository.
type Tag struct {
	Name      string
	CommitSHA string
}

// EntryType distinguishes files from directories in a listing.
type EntryType string

// Directory entry types.
const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// DirEntry is one item of a directory listing.
type DirEntry struct {
	Name        string
	Path        string
	Type        EntryType
	SHA         string
	Size        int
	DownloadURL string
}

// IsDir reports whether the entry is a directory.
func (e DirEntry) IsDir() bool {
	return e.Type == EntryDir
}

// FileContent is a file fetched at a specific ref.
type FileContent struct {
	Name        string
	Path        string
	SHA         string
	DownloadURL string
	Content     []byte
}

// SyncMode identifies how a sync run reconciled the catalog.
type SyncMode string

// Sync modes.
const (
	SyncModeFull        SyncMode = "full"
	SyncModeIncremental SyncMode = "incremental"
	SyncModeNoop        SyncMode = "noop"
)

// SyncPhase is the reconciler state for a repository.
type SyncPhase string

// Reconciler phases.
const (
	PhaseIdle        SyncPhase = "IDLE"
	PhaseChecking    SyncPhase = "CHECKING"
	PhaseFullSync    SyncPhase = "FULL_SYNC"
	PhaseIncremental SyncPhase = "INCREMENTAL_SYNC"
	PhaseNoop        SyncPhase = "NOOP"
	PhasePersisting  SyncPhase = "PERSISTING"
)

// SyncResult summarises one sync run.
type SyncResult struct {
	// RunID uniquely identifies the run in logs.
	RunID string

	Repository string
	Mode       SyncMode

	// FromSHA is the cursor before the run (empty for a first full sync).
	FromSHA string

	// ToSHA is the commit the catalog reflects after the run.
	ToSHA string

	// Changes is the number of classified change entries (incremental only).
	Changes int

	// Upserted is the number of products written.
	Upserted int

	// Unlisted is the number of products marked Listed=false.
	Unlisted int

	// Skipped counts changes that produced no write (README, OTHER, missing files).
	Skipped int

	// MetadataErrors counts products whose metadata could not be parsed.
	MetadataErrors int

	StartedAt time.Time
	Duration  time.Duration
}
