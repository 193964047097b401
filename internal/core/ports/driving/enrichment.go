package driving

import (
	"context"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

// EnrichmentService derives LLM-based enrichment from a parsed article.
type EnrichmentService interface {
	// Enrich runs the enrichment calls in order. Usage is the exact sum of
	// tokens reported by every completed call, and is returned even when an
	// error aborts the run part-way.
	Enrich(ctx context.Context, doc *domain.ParsedDocument, targetRatio float64, observer ProgressObserver) (domain.EnrichmentResult, domain.TokenUsage, error)
}
