package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driving"
)

// Ensure ArchiveService implements the interface.
var _ driving.ArchiveService = (*ArchiveService)(nil)

// ArchiveService stores and retrieves finished extractions.
type ArchiveService struct {
	store driven.ExtractionStore
}

// NewArchiveService creates a new archive service.
func NewArchiveService(store driven.ExtractionStore) *ArchiveService {
	return &ArchiveService{store: store}
}

// Save archives an extraction.
func (s *ArchiveService) Save(ctx context.Context, extraction *domain.Extraction) error {
	if extraction == nil || extraction.ID == "" {
		return fmt.Errorf("%w: extraction without ID", domain.ErrInvalidInput)
	}
	return s.store.Save(ctx, extraction)
}

// List returns archived extractions, newest first. A limit of zero or
// less returns everything.
func (s *ArchiveService) List(ctx context.Context, limit int) ([]domain.ExtractionSummary, error) {
	return s.store.List(ctx, limit)
}

// Get returns an archived extraction by ID.
func (s *ArchiveService) Get(ctx context.Context, id string) (*domain.Extraction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty ID", domain.ErrInvalidInput)
	}
	return s.store.Get(ctx, id)
}

// Delete removes an archived extraction.
func (s *ArchiveService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: empty ID", domain.ErrInvalidInput)
	}
	return s.store.Delete(ctx, id)
}
