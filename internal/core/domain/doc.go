// Package domain defines the core business entities for marketsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Product: A catalog entry keyed by its market directory slug
//   - PartialProduct: The fields present in one metadata document
//   - SyncCursor: The last commit a tracked repository was reconciled to
//   - ChangeEntry: One classified file change between two commits
//   - ReadmeSections: Description, setup and demo text of a product README
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
