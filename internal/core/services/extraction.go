package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driving"
	"github.com/custodia-labs/lexica-cli/internal/logger"
)

// Ensure ExtractionService implements the interface.
var _ driving.ExtractionService = (*ExtractionService)(nil)

// ExtractionConfig holds the dependencies of an ExtractionService.
type ExtractionConfig struct {
	Encyclopedia driven.EncyclopediaClient
	Normaliser   driven.Normaliser

	// Enricher runs LLM enrichment. Nil disables AI regardless of options.
	Enricher driving.EnrichmentService

	// Archive receives extractions run with ExtractOptions.Save. Optional.
	Archive driven.ExtractionStore

	// RequestDelay paces articles within a batch.
	RequestDelay time.Duration

	Logger logger.Logger
}

// ExtractionService runs the fetch, parse and enrich pipeline.
type ExtractionService struct {
	encyclopedia driven.EncyclopediaClient
	normaliser   driven.Normaliser
	enricher     driving.EnrichmentService
	archive      driven.ExtractionStore
	requestDelay time.Duration
	log          logger.Logger

	now   func() time.Time
	newID func() string
}

// NewExtractionService creates an extraction service.
func NewExtractionService(cfg ExtractionConfig) *ExtractionService {
	return &ExtractionService{
		encyclopedia: cfg.Encyclopedia,
		normaliser:   cfg.Normaliser,
		enricher:     cfg.Enricher,
		archive:      cfg.Archive,
		requestDelay: max(cfg.RequestDelay, 0),
		log:          logger.OrNop(cfg.Logger),
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// Extract runs the pipeline for one article. Enrichment failures degrade
// to the non-AI fallback; fetch and parse failures abort.
func (s *ExtractionService) Extract(
	ctx context.Context,
	ref domain.ArticleRef,
	opts domain.ExtractOptions,
	observer driving.ProgressObserver,
) (*domain.Extraction, error) {
	if ref.Title == "" {
		return nil, &domain.ValidationError{Reason: domain.ValidationEmptyInput}
	}
	if ref.URL == "" {
		ref.URL = domain.ArticleURL(domain.DefaultArticleHost, ref.Title)
	}
	step := func(st domain.ExtractionStep) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if observer != nil {
			observer.OnStep(st)
		}
		return nil
	}

	if err := step(domain.StepFetching); err != nil {
		return nil, err
	}
	start := time.Now()
	s.log.Info("fetching article", logger.String("title", ref.Title))
	raw, err := s.encyclopedia.FetchDocument(ctx, ref.Title)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", ref.Title, err)
	}
	s.log.Info("fetched article",
		logger.String("title", raw.Title),
		logger.Int("word_count", raw.WordCount),
		logger.Duration("duration", time.Since(start)),
	)

	if err := step(domain.StepParsing); err != nil {
		return nil, err
	}
	doc, err := s.normaliser.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", ref.Title, err)
	}

	ratio := domain.NormalizeSummaryRatio(opts.SummaryRatio)
	meta := domain.ExtractionMetadata{SummaryRatio: ratio}
	enr := domain.FallbackEnrichment(doc)

	if opts.AIEnabled && s.enricher != nil {
		result, usage, err := s.enricher.Enrich(ctx, doc, ratio, observer)
		if !usage.IsZero() {
			meta.TokensUsed = &usage
		}
		switch {
		case err == nil:
			enr = result
			meta.AIEnhanced = doc.WordCount > 0
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			s.log.Warn("enrichment failed, using fallback",
				logger.String("title", doc.Title),
				logger.Error(err),
			)
		}
	}

	if err := step(domain.StepComplete); err != nil {
		return nil, err
	}
	meta.ExtractedAt = s.now().UTC()
	extraction := domain.NewExtraction(s.newID(), ref.URL, doc, enr, meta)

	if opts.Save && s.archive != nil {
		if err := s.archive.Save(ctx, extraction); err != nil {
			return nil, fmt.Errorf("archive %q: %w", ref.Title, err)
		}
	}
	return extraction, nil
}

// ExtractBatch extracts refs in order, pausing RequestDelay after each
// article before starting the next. On cancellation it returns what
// finished so far alongside the context error.
func (s *ExtractionService) ExtractBatch(
	ctx context.Context,
	refs []domain.ArticleRef,
	opts domain.ExtractOptions,
	observer driving.ProgressObserver,
) (*domain.BatchResult, error) {
	if err := domain.CheckBatchSize(len(refs)); err != nil {
		return nil, err
	}

	batchObserver, _ := observer.(driving.BatchObserver)

	result := &domain.BatchResult{
		Extractions: make([]*domain.Extraction, 0, len(refs)),
	}
	for i, ref := range refs {
		if i > 0 {
			// The delay runs from the end of one article to the start of the next.
			if err := sleepContext(ctx, s.requestDelay); err != nil {
				return result, err
			}
		}
		if batchObserver != nil {
			batchObserver.OnArticle(i, len(refs), ref)
		}

		extraction, err := s.Extract(ctx, ref, opts, observer)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.log.Warn("article failed",
				logger.String("title", ref.Title),
				logger.Error(err),
			)
			result.Failures = append(result.Failures, domain.BatchFailure{Ref: ref, Err: err})
			continue
		}
		result.Extractions = append(result.Extractions, extraction)
	}

	s.log.Info("batch complete",
		logger.Int("extracted", len(result.Extractions)),
		logger.Int("failed", len(result.Failures)),
	)
	return result, nil
}

// Preview fetches a short description of an article. title may also be
// an article URL.
func (s *ExtractionService) Preview(ctx context.Context, title string) (*domain.ArticlePreview, error) {
	ref, err := domain.ParseArticleRef(title)
	if err != nil {
		return nil, err
	}
	preview, err := s.encyclopedia.FetchPreview(ctx, ref.Title)
	if err != nil {
		return nil, fmt.Errorf("preview %q: %w", ref.Title, err)
	}
	return preview, nil
}

// Estimate fetches an article and estimates the tokens needed to enrich it.
func (s *ExtractionService) Estimate(ctx context.Context, ref domain.ArticleRef) (domain.TokenEstimate, error) {
	if strings.TrimSpace(ref.Title) == "" {
		return domain.TokenEstimate{}, &domain.ValidationError{Reason: domain.ValidationEmptyInput}
	}
	raw, err := s.encyclopedia.FetchDocument(ctx, ref.Title)
	if err != nil {
		return domain.TokenEstimate{}, fmt.Errorf("fetch %q: %w", ref.Title, err)
	}
	return domain.EstimateExtraction(raw.WordCount), nil
}
