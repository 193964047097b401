package mcp

import (
	"context"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driving"
)

// mockExtractionService is a mock implementation of driving.ExtractionService.
type mockExtractionService struct {
	extraction *domain.Extraction
	preview    *domain.ArticlePreview
	estimate   domain.TokenEstimate
	err        error

	gotRef  domain.ArticleRef
	gotOpts domain.ExtractOptions
}

func (m *mockExtractionService) Extract(
	_ context.Context,
	ref domain.ArticleRef,
	opts domain.ExtractOptions,
	_ driving.ProgressObserver,
) (*domain.Extraction, error) {
	m.gotRef, m.gotOpts = ref, opts
	return m.extraction, m.err
}

func (m *mockExtractionService) ExtractBatch(
	_ context.Context,
	_ []domain.ArticleRef,
	_ domain.ExtractOptions,
	_ driving.ProgressObserver,
) (*domain.BatchResult, error) {
	return &domain.BatchResult{}, m.err
}

func (m *mockExtractionService) Preview(_ context.Context, _ string) (*domain.ArticlePreview, error) {
	return m.preview, m.err
}

func (m *mockExtractionService) Estimate(_ context.Context, ref domain.ArticleRef) (domain.TokenEstimate, error) {
	m.gotRef = ref
	return m.estimate, m.err
}

// mockDiscoveryService is a mock implementation of driving.DiscoveryService.
type mockDiscoveryService struct {
	batch *domain.SearchBatch
	err   error

	gotQuery  string
	gotLoaded []string
	gotBatch  int
}

func (m *mockDiscoveryService) Discover(_ context.Context, query string) (*domain.SearchBatch, error) {
	m.gotQuery = query
	return m.batch, m.err
}

func (m *mockDiscoveryService) ContinueDiscovery(
	_ context.Context,
	query string,
	alreadyLoaded []string,
	batchNumber int,
) (*domain.SearchBatch, error) {
	m.gotQuery, m.gotLoaded, m.gotBatch = query, alreadyLoaded, batchNumber
	return m.batch, m.err
}

// mockArchiveService is a mock implementation of driving.ArchiveService.
type mockArchiveService struct {
	summaries   []domain.ExtractionSummary
	extractions map[string]*domain.Extraction
	err         error
}

func (m *mockArchiveService) Save(_ context.Context, e *domain.Extraction) error {
	if m.extractions == nil {
		m.extractions = make(map[string]*domain.Extraction)
	}
	m.extractions[e.ID] = e
	return m.err
}

func (m *mockArchiveService) List(_ context.Context, _ int) ([]domain.ExtractionSummary, error) {
	return m.summaries, m.err
}

func (m *mockArchiveService) Get(_ context.Context, id string) (*domain.Extraction, error) {
	if m.err != nil {
		return nil, m.err
	}
	e, ok := m.extractions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (m *mockArchiveService) Delete(_ context.Context, _ string) error {
	return m.err
}
