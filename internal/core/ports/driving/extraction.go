package driving

import (
	"context"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

// ExtractionService turns encyclopedia articles into Extraction artifacts.
type ExtractionService interface {
	// Extract runs the full pipeline for one article. Cancellation is
	// honoured between steps; no partial artifact is ever returned.
	Extract(ctx context.Context, ref domain.ArticleRef, opts domain.ExtractOptions, observer ProgressObserver) (*domain.Extraction, error)

	// ExtractBatch extracts articles one after another, pacing requests.
	// Per-article failures are collected in the result. The returned error
	// is reserved for cancellation and invalid batches.
	ExtractBatch(ctx context.Context, refs []domain.ArticleRef, opts domain.ExtractOptions, observer ProgressObserver) (*domain.BatchResult, error)

	// Preview returns a short description of an article without AI.
	Preview(ctx context.Context, title string) (*domain.ArticlePreview, error)

	// Estimate fetches an article and estimates the token cost of enriching it.
	Estimate(ctx context.Context, ref domain.ArticleRef) (domain.TokenEstimate, error)
}
