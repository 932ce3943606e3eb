// Package memory provides in-memory implementations of the catalog stores.
//
// The stores mirror the semantics of the SQLite adapter and back the
// --ephemeral mode of the CLI as well as service tests.
package memory
