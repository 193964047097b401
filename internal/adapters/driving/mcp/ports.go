package mcp

import (
	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Extraction runs the article pipeline.
	Extraction driving.ExtractionService

	// Discovery suggests articles for a topic. Optional.
	Discovery driving.DiscoveryService

	// Archive exposes saved extractions as resources. Optional.
	Archive driving.ArchiveService

	// Defaults apply when an extract_article call leaves an option unset.
	Defaults domain.ExtractOptions
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Extraction == nil {
		return ErrMissingExtractionService
	}
	return nil
}
