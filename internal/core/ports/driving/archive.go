package driving

import (
	"context"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

// ArchiveService stores and retrieves finished extractions.
type ArchiveService interface {
	// Save archives an extraction.
	Save(ctx context.Context, extraction *domain.Extraction) error

	// List returns archived extractions, newest first.
	List(ctx context.Context, limit int) ([]domain.ExtractionSummary, error)

	// Get returns an archived extraction by ID.
	Get(ctx context.Context, id string) (*domain.Extraction, error)

	// Delete removes an archived extraction.
	Delete(ctx context.Context, id string) error
}
