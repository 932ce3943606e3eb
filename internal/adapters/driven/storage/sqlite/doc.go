// Package sqlite provides a unified SQLite-based implementation of the catalog stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements the store interfaces
// through a single database connection:
//
//   - ProductStore: Catalog products
//   - SyncCursorStore: Last processed commit per tracked repository
//   - ArtifactVersionStore: Cached Maven versions per product
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.marketsync/catalog.db
//
// # Thread Safety
//
// All operations are thread-safe. Installation counters are updated with
// single statements, and sync batches are written in one transaction.
package sqlite
