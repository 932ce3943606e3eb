package mcp

import (
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Catalog serves products, README sections and installation counts.
	Catalog driving.CatalogService

	// Versions lists downloadable artifact versions. Optional.
	Versions driving.VersionService

	// Sync triggers reconciliation. Optional.
	Sync driving.SyncOrchestrator
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Catalog == nil {
		return ErrMissingCatalogService
	}
	return nil
}
