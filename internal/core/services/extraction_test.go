package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexica-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driving"
)

var fixedNow = time.Date(2025, 1, 21, 10, 30, 0, 0, time.UTC)

func rawArticle(title string, wordCount int) *domain.RawDocument {
	return &domain.RawDocument{
		Title:      title,
		PageID:     42,
		Markup:     words(wordCount),
		Categories: []string{"Test pages"},
		WordCount:  wordCount,
	}
}

func mustRef(t *testing.T, input string) domain.ArticleRef {
	t.Helper()
	ref, err := domain.ParseArticleRef(input)
	require.NoError(t, err)
	return ref
}

func newTestExtraction(enc *mockEncyclopedia, enricher driving.EnrichmentService, archive *memory.ExtractionStore) *ExtractionService {
	cfg := ExtractionConfig{
		Encyclopedia: enc,
		Normaliser:   &mockNormaliser{},
		Enricher:     enricher,
		RequestDelay: time.Millisecond,
	}
	if archive != nil {
		cfg.Archive = archive
	}
	svc := NewExtractionService(cfg)
	svc.now = func() time.Time { return fixedNow }
	svc.newID = func() string { return "extraction-1" }
	return svc
}

func romeEnrichment() domain.EnrichmentResult {
	return domain.EnrichmentResult{
		Summary:       "Rome is the capital of Italy.",
		ArticleType:   domain.ArticleTypePlace,
		KeyFacts:      []domain.KeyFact{{Key: "Country", Value: "Italy"}},
		Dates:         []domain.DateEvent{},
		Locations:     []domain.Location{{Name: "Rome", Type: domain.LocationTypeCity}},
		RelatedTopics: []string{"Vatican City"},
	}
}

func TestExtract_WithoutAI(t *testing.T) {
	enc := &mockEncyclopedia{docs: map[string]*domain.RawDocument{"Rome": rawArticle("Rome", 300)}}
	enricher := &mockEnricher{result: romeEnrichment()}
	svc := newTestExtraction(enc, enricher, nil)
	obs := &recordingObserver{}

	got, err := svc.Extract(context.Background(), mustRef(t, "Rome"), domain.ExtractOptions{AIEnabled: false, SummaryRatio: 0.6}, obs)

	require.NoError(t, err)
	assert.Equal(t, "extraction-1", got.ID)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Rome", got.Metadata.SourceURL)
	assert.Equal(t, fixedNow, got.Metadata.ExtractedAt)
	assert.Equal(t, 42, got.Metadata.PageID)
	assert.Equal(t, domain.ExtractionVersion, got.Metadata.Version)
	assert.False(t, got.Metadata.AIEnhanced)
	assert.Nil(t, got.Metadata.TokensUsed)
	assert.InDelta(t, 0.6, got.Metadata.SummaryRatio, 1e-9)

	assert.Equal(t, "Rome is the subject of this article.", got.Article.Summary)
	assert.Equal(t, domain.ArticleTypeOther, got.Article.Type)
	assert.Equal(t, 300, got.Article.OriginalWordCount)
	assert.Empty(t, got.Classification.KeyFacts)

	assert.Empty(t, enricher.ratios)
	assert.Equal(t, []domain.ExtractionStep{domain.StepFetching, domain.StepParsing, domain.StepComplete}, obs.steps)
}

func TestExtract_WithAI(t *testing.T) {
	enc := &mockEncyclopedia{docs: map[string]*domain.RawDocument{"Rome": rawArticle("Rome", 300)}}
	enricher := &mockEnricher{result: romeEnrichment(), usage: domain.TokenUsage{InputTokens: 900, OutputTokens: 120}}
	svc := newTestExtraction(enc, enricher, nil)
	obs := &recordingObserver{}

	got, err := svc.Extract(context.Background(), mustRef(t, "Rome"), domain.ExtractOptions{AIEnabled: true, SummaryRatio: 0.9}, obs)

	require.NoError(t, err)
	assert.True(t, got.Metadata.AIEnhanced)
	require.NotNil(t, got.Metadata.TokensUsed)
	assert.Equal(t, domain.TokenUsage{InputTokens: 900, OutputTokens: 120}, *got.Metadata.TokensUsed)
	assert.Equal(t, "Rome is the capital of Italy.", got.Article.Summary)
	assert.Equal(t, 6, got.Article.WordCount)
	assert.Equal(t, domain.ArticleTypePlace, got.Article.Type)
	assert.Equal(t, []string{"Vatican City"}, got.Classification.RelatedTopics)

	assert.Equal(t, []float64{domain.MaxSummaryRatio}, enricher.ratios)
	assert.Equal(t, []domain.ExtractionStep{
		domain.StepFetching, domain.StepParsing, domain.StepGeneratingSummary, domain.StepComplete,
	}, obs.steps)
}

func TestExtract_EnrichmentFailureFallsBack(t *testing.T) {
	enc := &mockEncyclopedia{docs: map[string]*domain.RawDocument{"Rome": rawArticle("Rome", 300)}}
	enricher := &mockEnricher{
		usage: domain.TokenUsage{InputTokens: 500, OutputTokens: 50},
		err:   &domain.AIError{Kind: domain.AIServerError, StatusCode: 503},
	}
	svc := newTestExtraction(enc, enricher, nil)

	got, err := svc.Extract(context.Background(), mustRef(t, "Rome"), domain.ExtractOptions{AIEnabled: true}, nil)

	require.NoError(t, err)
	assert.False(t, got.Metadata.AIEnhanced)
	require.NotNil(t, got.Metadata.TokensUsed)
	assert.Equal(t, 500, got.Metadata.TokensUsed.InputTokens)
	assert.Equal(t, "Rome is the subject of this article.", got.Article.Summary)
	assert.Equal(t, domain.ArticleTypeOther, got.Article.Type)
}

func TestExtract_ZeroWordArticleIsNotAIEnhanced(t *testing.T) {
	enc := &mockEncyclopedia{docs: map[string]*domain.RawDocument{"Stub": rawArticle("Stub", 0)}}
	enricher := &mockEnricher{result: domain.FallbackEnrichment(&domain.ParsedDocument{FirstParagraph: "x"})}
	svc := newTestExtraction(enc, enricher, nil)

	got, err := svc.Extract(context.Background(), mustRef(t, "Stub"), domain.ExtractOptions{AIEnabled: true}, nil)

	require.NoError(t, err)
	assert.False(t, got.Metadata.AIEnhanced)
	assert.Nil(t, got.Metadata.TokensUsed)
}

func TestExtract_FetchErrorAborts(t *testing.T) {
	enricher := &mockEnricher{}
	svc := newTestExtraction(&mockEncyclopedia{}, enricher, nil)

	got, err := svc.Extract(context.Background(), mustRef(t, "Nowhere"), domain.ExtractOptions{AIEnabled: true}, nil)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, domain.FetchNotFound, fetchErr.Kind)
	assert.Empty(t, enricher.ratios)
}

func TestExtract_ParseErrorAborts(t *testing.T) {
	enc := &mockEncyclopedia{docs: map[string]*domain.RawDocument{"Rome": rawArticle("Rome", 10)}}
	svc := NewExtractionService(ExtractionConfig{
		Encyclopedia: enc,
		Normaliser:   &mockNormaliser{err: &domain.ParseError{Kind: domain.ParseMissingContent}},
	})

	_, err := svc.Extract(context.Background(), mustRef(t, "Rome"), domain.ExtractOptions{}, nil)

	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, domain.ParseMissingContent, parseErr.Kind)
}

func TestExtract_CancelledBeforeFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	enc := &mockEncyclopedia{docs: map[string]*domain.RawDocument{"Rome": rawArticle("Rome", 10)}}
	svc := newTestExtraction(enc, nil, nil)
	obs := &recordingObserver{}

	_, err := svc.Extract(ctx, mustRef(t, "Rome"), domain.ExtractOptions{}, obs)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, enc.fetched)
	assert.Empty(t, obs.steps)
}

func TestExtract_CancelledDuringEnrichmentDiscardsArtifact(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	enc := &mockEncyclopedia{docs: map[string]*domain.RawDocument{"Rome": rawArticle("Rome", 10)}}
	enricher := &mockEnricher{before: cancel, err: context.Canceled}
	archive := memory.NewExtractionStore()
	svc := newTestExtraction(enc, enricher, archive)

	got, err := svc.Extract(ctx, mustRef(t, "Rome"), domain.ExtractOptions{AIEnabled: true, Save: true}, nil)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, context.Canceled)
	list, listErr := archive.List(context.Background(), 0)
	require.NoError(t, listErr)
	assert.Empty(t, list)
}

func TestExtract_SavesToArchive(t *testing.T) {
	enc := &mockEncyclopedia{docs: map[string]*domain.RawDocument{"Rome": rawArticle("Rome", 10)}}
	archive := memory.NewExtractionStore()
	svc := newTestExtraction(enc, nil, archive)

	got, err := svc.Extract(context.Background(), mustRef(t, "Rome"), domain.ExtractOptions{Save: true}, nil)
	require.NoError(t, err)

	stored, err := archive.Get(context.Background(), got.ID)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestExtract_EmptyRef(t *testing.T) {
	svc := newTestExtraction(&mockEncyclopedia{}, nil, nil)
	_, err := svc.Extract(context.Background(), domain.ArticleRef{}, domain.ExtractOptions{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractBatch_CollectsFailures(t *testing.T) {
	enc := &mockEncyclopedia{docs: map[string]*domain.RawDocument{
		"Rome":   rawArticle("Rome", 10),
		"Athens": rawArticle("Athens", 10),
	}}
	svc := newTestExtraction(enc, nil, nil)
	obs := &recordingObserver{}
	refs := []domain.ArticleRef{mustRef(t, "Rome"), mustRef(t, "Atlantis"), mustRef(t, "Athens")}

	result, err := svc.ExtractBatch(context.Background(), refs, domain.ExtractOptions{}, obs)

	require.NoError(t, err)
	require.Len(t, result.Extractions, 2)
	assert.Equal(t, "Rome", result.Extractions[0].Article.Title)
	assert.Equal(t, "Athens", result.Extractions[1].Article.Title)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "Atlantis", result.Failures[0].Ref.Title)
	assert.ErrorIs(t, result.Failures[0].Err, domain.ErrNotFound)
	assert.Equal(t, []string{"1/3 Rome", "2/3 Atlantis", "3/3 Athens"}, obs.articles)
	assert.Equal(t, []string{"Rome", "Atlantis", "Athens"}, enc.fetched)
}

func TestExtractBatch_TooLarge(t *testing.T) {
	svc := newTestExtraction(&mockEncyclopedia{}, nil, nil)
	refs := make([]domain.ArticleRef, domain.MaxBatchSize+1)

	_, err := svc.ExtractBatch(context.Background(), refs, domain.ExtractOptions{}, nil)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, domain.ValidationBatchTooLarge, vErr.Reason)
}

// cancellingObserver cancels once the article at index is announced.
type cancellingObserver struct {
	recordingObserver
	index  int
	cancel context.CancelFunc
}

func (c *cancellingObserver) OnArticle(index, total int, ref domain.ArticleRef) {
	c.recordingObserver.OnArticle(index, total, ref)
	if index == c.index {
		c.cancel()
	}
}

func TestExtractBatch_CancelReturnsFinishedArticles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	enc := &mockEncyclopedia{docs: map[string]*domain.RawDocument{
		"Rome":   rawArticle("Rome", 10),
		"Athens": rawArticle("Athens", 10),
	}}
	svc := newTestExtraction(enc, nil, nil)
	obs := &cancellingObserver{index: 1, cancel: cancel}

	result, err := svc.ExtractBatch(ctx, []domain.ArticleRef{mustRef(t, "Rome"), mustRef(t, "Athens")}, domain.ExtractOptions{}, obs)

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	require.Len(t, result.Extractions, 1)
	assert.Empty(t, result.Failures)
	assert.Equal(t, []string{"Rome"}, enc.fetched)
}

func TestExtractBatch_PacesArticles(t *testing.T) {
	enc := &mockEncyclopedia{docs: map[string]*domain.RawDocument{
		"A": rawArticle("A", 1), "B": rawArticle("B", 1), "C": rawArticle("C", 1),
	}}
	svc := NewExtractionService(ExtractionConfig{
		Encyclopedia: enc,
		Normaliser:   &mockNormaliser{},
		RequestDelay: 20 * time.Millisecond,
	})

	start := time.Now()
	result, err := svc.ExtractBatch(context.Background(),
		[]domain.ArticleRef{mustRef(t, "A"), mustRef(t, "B"), mustRef(t, "C")}, domain.ExtractOptions{}, nil)

	require.NoError(t, err)
	assert.Len(t, result.Extractions, 3)
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestExtractBatch_DelayFollowsSlowArticles(t *testing.T) {
	const (
		fetchTime = 60 * time.Millisecond
		delay     = 50 * time.Millisecond
	)
	var mu sync.Mutex
	var started, finished []time.Time
	enc := &mockEncyclopedia{docs: map[string]*domain.RawDocument{
		"A": rawArticle("A", 1), "B": rawArticle("B", 1),
	}}
	enc.fetchHook = func(string) {
		mu.Lock()
		started = append(started, time.Now())
		mu.Unlock()
		time.Sleep(fetchTime)
		mu.Lock()
		finished = append(finished, time.Now())
		mu.Unlock()
	}
	svc := NewExtractionService(ExtractionConfig{
		Encyclopedia: enc,
		Normaliser:   &mockNormaliser{},
		RequestDelay: delay,
	})

	result, err := svc.ExtractBatch(context.Background(),
		[]domain.ArticleRef{mustRef(t, "A"), mustRef(t, "B")}, domain.ExtractOptions{}, nil)

	require.NoError(t, err)
	assert.Len(t, result.Extractions, 2)
	require.Len(t, started, 2)
	require.Len(t, finished, 2)
	gap := started[1].Sub(finished[0])
	assert.GreaterOrEqual(t, gap, delay-5*time.Millisecond, "pause between articles was %s", gap)
}

func TestExtractBatch_NoDelayAfterLastArticle(t *testing.T) {
	enc := &mockEncyclopedia{docs: map[string]*domain.RawDocument{"A": rawArticle("A", 1)}}
	svc := NewExtractionService(ExtractionConfig{
		Encyclopedia: enc,
		Normaliser:   &mockNormaliser{},
		RequestDelay: time.Second,
	})

	start := time.Now()
	result, err := svc.ExtractBatch(context.Background(),
		[]domain.ArticleRef{mustRef(t, "A")}, domain.ExtractOptions{}, nil)

	require.NoError(t, err)
	assert.Len(t, result.Extractions, 1)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestExtractBatch_CancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	enc := &mockEncyclopedia{docs: map[string]*domain.RawDocument{
		"A": rawArticle("A", 1), "B": rawArticle("B", 1),
	}}
	svc := NewExtractionService(ExtractionConfig{
		Encyclopedia: enc,
		Normaliser:   &mockNormaliser{},
		RequestDelay: time.Minute,
	})
	timer := time.AfterFunc(50*time.Millisecond, cancel)
	defer timer.Stop()

	start := time.Now()
	result, err := svc.ExtractBatch(ctx,
		[]domain.ArticleRef{mustRef(t, "A"), mustRef(t, "B")}, domain.ExtractOptions{}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Len(t, result.Extractions, 1)
	assert.Equal(t, []string{"A"}, enc.fetched)
}

func TestPreview(t *testing.T) {
	enc := &mockEncyclopedia{previews: map[string]*domain.ArticlePreview{
		"Ancient Rome": {Title: "Ancient Rome", Extract: "Ancient Rome was a civilisation."},
	}}
	svc := newTestExtraction(enc, nil, nil)

	got, err := svc.Preview(context.Background(), "https://en.m.wikipedia.org/wiki/Ancient_Rome")
	require.NoError(t, err)
	assert.Equal(t, "Ancient Rome was a civilisation.", got.Extract)

	_, err = svc.Preview(context.Background(), "Nowhere")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Preview(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEstimate(t *testing.T) {
	enc := &mockEncyclopedia{docs: map[string]*domain.RawDocument{"Rome": rawArticle("Rome", 1000)}}
	svc := newTestExtraction(enc, nil, nil)

	got, err := svc.Estimate(context.Background(), mustRef(t, "Rome"))

	require.NoError(t, err)
	assert.Equal(t, domain.TokenEstimate{InputTokens: 3300, OutputTokens: 150}, got)

	_, err = svc.Estimate(context.Background(), mustRef(t, "Nowhere"))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
