// Package migrations embeds the SQL schema migrations of the catalog database.
package migrations

import "embed"

// FS contains all SQL migration files embedded at compile time.
// Files are named NNN_description.up.sql and applied in version order.
//
//go:embed *.sql
var FS embed.FS
