package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driving"
)

// --- Mock implementations ---

// scriptedReply is one canned outcome of mockMessagesClient.
type scriptedReply struct {
	text  string
	usage domain.TokenUsage
	err   error
}

// mockMessagesClient implements driven.MessagesClient. It replays script in
// order; once exhausted it answers with respond, or "OK".
type mockMessagesClient struct {
	mu       sync.Mutex
	script   []scriptedReply
	respond  func(req driven.MessageRequest) scriptedReply
	requests []driven.MessageRequest
	keys     []string
}

func (m *mockMessagesClient) CreateMessage(ctx context.Context, apiKey string, req driven.MessageRequest) (*driven.MessageResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.keys = append(m.keys, apiKey)
	var reply scriptedReply
	switch {
	case len(m.script) > 0:
		reply = m.script[0]
		m.script = m.script[1:]
	case m.respond != nil:
		reply = m.respond(req)
	default:
		reply = scriptedReply{text: "OK", usage: domain.TokenUsage{InputTokens: 1, OutputTokens: 1}}
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if reply.err != nil {
		return nil, reply.err
	}
	return &driven.MessageResponse{Text: reply.text, StopReason: "end_turn", Usage: reply.usage}, nil
}

func (m *mockMessagesClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *mockMessagesClient) prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.requests))
	for i, r := range m.requests {
		out[i] = r.Prompt
	}
	return out
}

func statusReply(code int) scriptedReply {
	return scriptedReply{err: &driven.StatusError{StatusCode: code, Message: fmt.Sprintf("status %d", code)}}
}

// mockEncyclopedia implements driven.EncyclopediaClient.
type mockEncyclopedia struct {
	mu        sync.Mutex
	docs      map[string]*domain.RawDocument
	previews  map[string]*domain.ArticlePreview
	fetchErr  error
	missing   map[string]bool
	existsErr map[string]error
	fetched   []string
	checked   []string

	// existsHook runs inside PageExists, before the answer is computed.
	existsHook func(title string)

	// fetchHook runs inside FetchDocument, before the document is returned.
	fetchHook func(title string)
}

func (m *mockEncyclopedia) FetchDocument(_ context.Context, title string) (*domain.RawDocument, error) {
	if m.fetchHook != nil {
		m.fetchHook(title)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched = append(m.fetched, title)
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	doc, ok := m.docs[title]
	if !ok {
		return nil, &domain.FetchError{Kind: domain.FetchNotFound, Title: title}
	}
	return doc, nil
}

func (m *mockEncyclopedia) FetchPreview(_ context.Context, title string) (*domain.ArticlePreview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.previews[title]
	if !ok {
		return nil, &domain.FetchError{Kind: domain.FetchNotFound, Title: title}
	}
	return p, nil
}

func (m *mockEncyclopedia) PageExists(ctx context.Context, title string) (bool, error) {
	if m.existsHook != nil {
		m.existsHook(title)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checked = append(m.checked, title)
	if err := m.existsErr[title]; err != nil {
		return false, err
	}
	return !m.missing[title], nil
}

func (m *mockEncyclopedia) checkedTitles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.checked...)
}

// mockNormaliser implements driven.Normaliser.
type mockNormaliser struct {
	doc *domain.ParsedDocument
	err error
}

func (m *mockNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.ParsedDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.doc != nil {
		return m.doc, nil
	}
	return &domain.ParsedDocument{
		Title:          raw.Title,
		DisplayTitle:   raw.Title,
		PageID:         raw.PageID,
		Categories:     raw.Categories,
		FirstParagraph: raw.Title + " is the subject of this article.",
		Sections: []domain.Section{{
			ID: "section_0", Title: "Content", Level: 2,
			Content: raw.Markup, WordCount: domain.CountWords(raw.Markup),
		}},
		WordCount: raw.WordCount,
	}, nil
}

// mapPromptStore implements driven.PromptStore over a fixed map.
type mapPromptStore map[string]string

func (m mapPromptStore) Load(name string) (string, error) {
	p, ok := m[name]
	if !ok {
		return "", fmt.Errorf("prompt %q not found", name)
	}
	return p, nil
}

func (m mapPromptStore) Reload() {}

// recordingObserver collects progress steps.
type recordingObserver struct {
	mu       sync.Mutex
	steps    []domain.ExtractionStep
	articles []string
}

func (r *recordingObserver) OnStep(step domain.ExtractionStep) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

func (r *recordingObserver) OnArticle(index, total int, ref domain.ArticleRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.articles = append(r.articles, fmt.Sprintf("%d/%d %s", index+1, total, ref.Title))
}

// words returns a string of n words.
func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

// mockEnricher implements driving.EnrichmentService.
type mockEnricher struct {
	result domain.EnrichmentResult
	usage  domain.TokenUsage
	err    error

	// before runs at the start of Enrich.
	before func()
	ratios []float64
}

func (m *mockEnricher) Enrich(_ context.Context, _ *domain.ParsedDocument, ratio float64, observer driving.ProgressObserver) (domain.EnrichmentResult, domain.TokenUsage, error) {
	if m.before != nil {
		m.before()
	}
	m.ratios = append(m.ratios, ratio)
	if observer != nil {
		observer.OnStep(domain.StepGeneratingSummary)
	}
	return m.result, m.usage, m.err
}
