package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity, file or ref does not exist.
	// Callers treat it as "no data for this optional asset".
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRemoteUnavailable indicates a transport, authentication or rate
	// limit failure talking to the remote repository. A sync run that hits
	// it aborts without advancing its cursor.
	ErrRemoteUnavailable = errors.New("remote repository unavailable")

	// ErrMalformedMetadata indicates a product metadata file could not be
	// parsed as a structured document at all.
	ErrMalformedMetadata = errors.New("malformed product metadata")

	// ErrPersistence indicates the catalog store rejected a write batch.
	ErrPersistence = errors.New("catalog persistence failed")

	// ErrSyncInProgress indicates a sync is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrChangeSetTruncated indicates the remote returned an incomplete diff
	// between two commits. The reconciler falls back to a full sync.
	ErrChangeSetTruncated = errors.New("change set truncated")

	// ErrNotConfigured indicates a required collaborator was not wired.
	ErrNotConfigured = errors.New("not configured")
)
