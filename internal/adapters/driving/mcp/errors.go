// Package mcp provides an MCP (Model Context Protocol) server adapter for
// marketsync. It lets AI assistants browse the product catalog, read product
// READMEs and versions, record installations and trigger syncs.
package mcp

import "errors"

// ErrMissingCatalogService is returned when the catalog service is not provided.
var ErrMissingCatalogService = errors.New("mcp: catalog service is required")

// ErrSyncUnavailable is returned by the sync tool when no orchestrator is wired.
var ErrSyncUnavailable = errors.New("mcp: sync is not available")

// ErrVersionsUnavailable is returned by the versions tool when no version
// service is wired.
var ErrVersionsUnavailable = errors.New("mcp: version listing is not available")
