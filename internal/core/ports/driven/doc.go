// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - RemoteRepository: Reads tags, files, directories and diffs of a repository
//   - ProductStore: Catalog persistence
//   - SyncCursorStore: Last processed commit per repository
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ArtifactFetcher: Maven metadata lookups. Without it, version listing is disabled.
//   - ArtifactVersionStore: Version cache. Without it, every lookup hits the network.
//   - SyncMetrics: Reconciliation metrics. Without it, nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
