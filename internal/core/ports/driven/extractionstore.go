package driven

import (
	"context"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

// ExtractionStore persists finished extractions.
type ExtractionStore interface {
	// Save stores an extraction, replacing any with the same ID.
	Save(ctx context.Context, extraction *domain.Extraction) error

	// Get retrieves an extraction by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Extraction, error)

	// List returns summaries, newest first. A limit of zero or less
	// returns everything.
	List(ctx context.Context, limit int) ([]domain.ExtractionSummary, error)

	// Delete removes an extraction.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}
