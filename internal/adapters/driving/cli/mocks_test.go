package cli

import (
	"context"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driving"
)

// mockExtractionService is a mock implementation of driving.ExtractionService.
type mockExtractionService struct {
	extraction *domain.Extraction
	batch      *domain.BatchResult
	preview    *domain.ArticlePreview
	estimate   domain.TokenEstimate
	err        error

	gotRefs []domain.ArticleRef
	gotOpts domain.ExtractOptions
}

func (m *mockExtractionService) Extract(
	_ context.Context,
	ref domain.ArticleRef,
	opts domain.ExtractOptions,
	observer driving.ProgressObserver,
) (*domain.Extraction, error) {
	m.gotRefs = append(m.gotRefs, ref)
	m.gotOpts = opts
	if observer != nil {
		observer.OnStep(domain.StepFetching)
	}
	return m.extraction, m.err
}

func (m *mockExtractionService) ExtractBatch(
	_ context.Context,
	refs []domain.ArticleRef,
	opts domain.ExtractOptions,
	_ driving.ProgressObserver,
) (*domain.BatchResult, error) {
	m.gotRefs = append(m.gotRefs, refs...)
	m.gotOpts = opts
	return m.batch, m.err
}

func (m *mockExtractionService) Preview(_ context.Context, _ string) (*domain.ArticlePreview, error) {
	return m.preview, m.err
}

func (m *mockExtractionService) Estimate(_ context.Context, ref domain.ArticleRef) (domain.TokenEstimate, error) {
	m.gotRefs = append(m.gotRefs, ref)
	return m.estimate, m.err
}

// mockDiscoveryService returns the initial batch, then each continuation
// in turn.
type mockDiscoveryService struct {
	initial       *domain.SearchBatch
	continuations []*domain.SearchBatch
	err           error

	continueCalls []continueCall
}

type continueCall struct {
	loaded      []string
	batchNumber int
}

func (m *mockDiscoveryService) Discover(_ context.Context, _ string) (*domain.SearchBatch, error) {
	return m.initial, m.err
}

func (m *mockDiscoveryService) ContinueDiscovery(
	_ context.Context,
	_ string,
	alreadyLoaded []string,
	batchNumber int,
) (*domain.SearchBatch, error) {
	m.continueCalls = append(m.continueCalls, continueCall{loaded: alreadyLoaded, batchNumber: batchNumber})
	if m.err != nil {
		return nil, m.err
	}
	if len(m.continueCalls) > len(m.continuations) {
		return &domain.SearchBatch{}, nil
	}
	return m.continuations[len(m.continueCalls)-1], nil
}

// stubValidator accepts every key except the configured bad one.
type stubValidator struct {
	bad   string
	calls []string
}

func (v *stubValidator) ValidateKey(_ context.Context, apiKey string) error {
	v.calls = append(v.calls, apiKey)
	if apiKey == v.bad {
		return &domain.AIError{Kind: domain.AIInvalidCredential, StatusCode: 401}
	}
	return nil
}
