package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
)

// Ensure ExtractionStore implements the interface.
var _ driven.ExtractionStore = (*ExtractionStore)(nil)

// ExtractionStore is an in-memory implementation of driven.ExtractionStore.
// Extractions are immutable, so stored values share their slices with the
// caller.
type ExtractionStore struct {
	mu          sync.RWMutex
	extractions map[string]domain.Extraction
}

// NewExtractionStore creates a new in-memory extraction store.
func NewExtractionStore() *ExtractionStore {
	return &ExtractionStore{
		extractions: make(map[string]domain.Extraction),
	}
}

// Save stores or replaces an extraction.
func (s *ExtractionStore) Save(_ context.Context, extraction *domain.Extraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extractions[extraction.ID] = *extraction
	return nil
}

// Get retrieves an extraction by ID.
func (s *ExtractionStore) Get(_ context.Context, id string) (*domain.Extraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.extractions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

// List returns summaries, newest first.
func (s *ExtractionStore) List(_ context.Context, limit int) ([]domain.ExtractionSummary, error) {
	s.mu.RLock()
	summaries := make([]domain.ExtractionSummary, 0, len(s.extractions))
	for _, e := range s.extractions {
		summaries = append(summaries, e.Summary())
	}
	s.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].ExtractedAt.Equal(summaries[j].ExtractedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].ExtractedAt.After(summaries[j].ExtractedAt)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Delete removes an extraction.
func (s *ExtractionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.extractions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.extractions, id)
	return nil
}
