package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driving"
	"github.com/custodia-labs/lexica-cli/internal/logger"
)

// Ensure EnrichmentService implements the interface.
var _ driving.EnrichmentService = (*EnrichmentService)(nil)

// Completer issues single-turn completions. CompletionService implements it.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, domain.TokenUsage, error)
}

// Context window limits.
const (
	shortArticleWords  = 3000
	mediumArticleWords = 10000

	mediumSectionCount = 10
	mediumSectionChars = 1500
	longSectionCount   = 15
	longSectionChars   = 1000

	contextInfoboxFields = 20
)

// Per-prompt input limits, in characters.
const (
	summaryInputChars  = 15000
	excerptInputChars  = 3000
	summaryExcerptLen  = 500
	classifyCategories = 5
	keyFactFields      = 15
	maxRelatedTopics   = 10
)

// Summary length targets, in words.
const (
	minTargetWords     = 50
	longTargetWords    = 500
	minSummaryBandLow  = 25
	minSummaryBandSpan = 50

	// underTargetFraction of the target below which a summary is logged.
	underTargetFraction = 0.3
)

// EnrichmentService runs the LLM enrichment calls for one parsed article.
// Calls run sequentially so progress is reported per step.
type EnrichmentService struct {
	completer Completer
	prompts   *promptLoader
	log       logger.Logger
}

// NewEnrichmentService creates an enrichment service. A nil prompt store
// uses the embedded prompts.
func NewEnrichmentService(completer Completer, prompts driven.PromptStore, log logger.Logger) *EnrichmentService {
	return &EnrichmentService{
		completer: completer,
		prompts:   newPromptLoader(prompts),
		log:       logger.OrNop(log),
	}
}

// SetPromptStore implements driven.PromptStoreAware.
func (s *EnrichmentService) SetPromptStore(store driven.PromptStore) {
	s.prompts = newPromptLoader(store)
}

// enrichRun carries the state of one Enrich call.
type enrichRun struct {
	ctx      context.Context
	observer driving.ProgressObserver
	usage    domain.TokenUsage
}

// step checks for cancellation and reports the step before an LLM call.
func (r *enrichRun) step(step domain.ExtractionStep) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if r.observer != nil {
		r.observer.OnStep(step)
	}
	return nil
}

// Enrich summarises, classifies and extracts facts, dates, locations and
// related topics. An article without countable words gets the fallback
// result and no LLM calls.
func (s *EnrichmentService) Enrich(
	ctx context.Context,
	doc *domain.ParsedDocument,
	targetRatio float64,
	observer driving.ProgressObserver,
) (domain.EnrichmentResult, domain.TokenUsage, error) {
	if doc == nil {
		return domain.EnrichmentResult{}, domain.TokenUsage{}, fmt.Errorf("enrich: %w: nil document", domain.ErrInvalidInput)
	}
	if doc.WordCount <= 0 {
		s.log.Warn("article has no countable words, skipping enrichment", logger.String("title", doc.Title))
		return domain.FallbackEnrichment(doc), domain.TokenUsage{}, nil
	}

	ratio := domain.NormalizeSummaryRatio(targetRatio)
	fullText := BuildArticleContext(doc)
	target := SummaryTarget(doc.WordCount, ratio)
	run := &enrichRun{ctx: ctx, observer: observer}

	s.log.Info("enriching article",
		logger.String("title", doc.Title),
		logger.Int("word_count", doc.WordCount),
		logger.Float64("ratio", ratio),
		logger.Int("target_words", target.Words),
		logger.Int("context_chars", utf8.RuneCountInString(fullText)),
	)

	summary, err := s.summarise(run, doc, fullText, target)
	if err != nil {
		return domain.EnrichmentResult{}, run.usage, err
	}
	articleType, err := s.classify(run, doc, summary)
	if err != nil {
		return domain.EnrichmentResult{}, run.usage, err
	}
	facts, err := s.keyFacts(run, doc, fullText)
	if err != nil {
		return domain.EnrichmentResult{}, run.usage, err
	}
	dates, err := s.dates(run, doc, fullText)
	if err != nil {
		return domain.EnrichmentResult{}, run.usage, err
	}
	locations, err := s.locations(run, doc, fullText)
	if err != nil {
		return domain.EnrichmentResult{}, run.usage, err
	}
	topics, err := s.topics(run, doc, summary)
	if err != nil {
		return domain.EnrichmentResult{}, run.usage, err
	}

	s.log.Info("enrichment complete",
		logger.String("title", doc.Title),
		logger.Int("input_tokens", run.usage.InputTokens),
		logger.Int("output_tokens", run.usage.OutputTokens),
	)

	return domain.EnrichmentResult{
		Summary:       summary,
		ArticleType:   articleType,
		KeyFacts:      facts,
		Dates:         dates,
		Locations:     locations,
		RelatedTopics: topics,
	}, run.usage, nil
}

func (s *EnrichmentService) complete(run *enrichRun, system, prompt string, maxTokens int) (string, error) {
	text, usage, err := s.completer.Complete(run.ctx, CompletionRequest{Prompt: prompt, System: system, MaxTokens: maxTokens})
	run.usage = run.usage.Add(usage)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (s *EnrichmentService) summarise(run *enrichRun, doc *domain.ParsedDocument, fullText string, target SummaryBand) (string, error) {
	if err := run.step(domain.StepGeneratingSummary); err != nil {
		return "", err
	}

	system, err := s.prompts.format(driven.PromptSummarySystem)
	if err != nil {
		return "", err
	}
	prompt, err := s.prompts.format(driven.PromptSummary,
		target.Words, target.Min, target.Max, doc.Title, truncateRunes(fullText, summaryInputChars))
	if err != nil {
		return "", err
	}

	summary, err := s.complete(run, system, prompt, 0)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	if summary == "" {
		return "", &domain.AIError{Kind: domain.AIInvalidResponse, Err: fmt.Errorf("empty summary")}
	}

	got := domain.CountWords(summary)
	floor := underTargetFraction * float64(target.Words)
	if float64(got) < floor {
		s.log.Warn("summary under target",
			logger.String("title", doc.Title),
			logger.Int("words", got),
			logger.Int("target", target.Words),
			logger.Float64("floor", floor),
		)
	} else {
		s.log.Debug("summary length",
			logger.Int("words", got),
			logger.Int("target", target.Words),
		)
	}
	return summary, nil
}

func (s *EnrichmentService) classify(run *enrichRun, doc *domain.ParsedDocument, summary string) (domain.ArticleType, error) {
	if err := run.step(domain.StepClassifying); err != nil {
		return "", err
	}

	types := make([]string, len(domain.ArticleTypes))
	for i, t := range domain.ArticleTypes {
		types[i] = t.String()
	}
	categories := doc.Categories
	if len(categories) > classifyCategories {
		categories = categories[:classifyCategories]
	}

	prompt, err := s.prompts.format(driven.PromptClassify,
		strings.Join(types, ", "), doc.Title, strings.Join(categories, ", "), truncateRunes(summary, summaryExcerptLen))
	if err != nil {
		return "", err
	}
	resp, err := s.complete(run, "", prompt, 0)
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	return domain.ParseArticleType(firstLine(resp)), nil
}

func (s *EnrichmentService) keyFacts(run *enrichRun, doc *domain.ParsedDocument, fullText string) ([]domain.KeyFact, error) {
	if err := run.step(domain.StepExtractingKeyFacts); err != nil {
		return nil, err
	}

	var infobox strings.Builder
	if doc.Infobox != nil {
		for i, f := range doc.Infobox.Fields {
			if i == keyFactFields {
				break
			}
			fmt.Fprintf(&infobox, "%s: %s\n", f.Key, f.Value)
		}
	}

	prompt, err := s.prompts.format(driven.PromptKeyFacts,
		doc.Title, strings.TrimSpace(infobox.String()), truncateRunes(fullText, excerptInputChars))
	if err != nil {
		return nil, err
	}
	resp, err := s.complete(run, "", prompt, 0)
	if err != nil {
		return nil, fmt.Errorf("extract key facts: %w", err)
	}
	return ParseKeyFacts(resp), nil
}

func (s *EnrichmentService) dates(run *enrichRun, doc *domain.ParsedDocument, fullText string) ([]domain.DateEvent, error) {
	if err := run.step(domain.StepExtractingDates); err != nil {
		return nil, err
	}
	prompt, err := s.prompts.format(driven.PromptDates, doc.Title, truncateRunes(fullText, excerptInputChars))
	if err != nil {
		return nil, err
	}
	resp, err := s.complete(run, "", prompt, 0)
	if err != nil {
		return nil, fmt.Errorf("extract dates: %w", err)
	}
	return ParseDateEvents(resp), nil
}

func (s *EnrichmentService) locations(run *enrichRun, doc *domain.ParsedDocument, fullText string) ([]domain.Location, error) {
	if err := run.step(domain.StepExtractingLocations); err != nil {
		return nil, err
	}
	prompt, err := s.prompts.format(driven.PromptLocations, doc.Title, truncateRunes(fullText, excerptInputChars))
	if err != nil {
		return nil, err
	}
	resp, err := s.complete(run, "", prompt, 0)
	if err != nil {
		return nil, fmt.Errorf("extract locations: %w", err)
	}
	return ParseLocations(resp), nil
}

func (s *EnrichmentService) topics(run *enrichRun, doc *domain.ParsedDocument, summary string) ([]string, error) {
	if err := run.step(domain.StepExtractingTopics); err != nil {
		return nil, err
	}
	prompt, err := s.prompts.format(driven.PromptTopics, doc.Title, truncateRunes(summary, summaryExcerptLen))
	if err != nil {
		return nil, err
	}
	resp, err := s.complete(run, "", prompt, 0)
	if err != nil {
		return nil, fmt.Errorf("extract related topics: %w", err)
	}
	return ParseTopics(resp), nil
}

// SummaryBand is the target summary length and its acceptable range.
type SummaryBand struct {
	Words int
	Min   int
	Max   int
}

// SummaryTarget computes the summary target for an article. Targets under
// 500 words accept 50-150% of the target; longer ones 30-120%.
func SummaryTarget(wordCount int, ratio float64) SummaryBand {
	words := max(safeRound(float64(max(wordCount, 0))*ratio), minTargetWords)

	lowPct, highPct := 0.5, 1.5
	if words >= longTargetWords {
		lowPct, highPct = 0.3, 1.2
	}
	lo := max(safeRound(float64(words)*lowPct), minSummaryBandLow)
	hi := max(safeRound(float64(words)*highPct), lo+minSummaryBandSpan)
	return SummaryBand{Words: words, Min: lo, Max: hi}
}

// BuildArticleContext assembles the text sent to the model: the lead
// paragraph, a length-dependent window of sections and the infobox.
func BuildArticleContext(doc *domain.ParsedDocument) string {
	var b strings.Builder
	b.WriteString(doc.FirstParagraph)
	b.WriteString("\n\n")
	if doc.WordCount <= 0 {
		return b.String()
	}

	count, limit := len(doc.Sections), 0
	switch {
	case doc.WordCount < shortArticleWords:
	case doc.WordCount < mediumArticleWords:
		count, limit = mediumSectionCount, mediumSectionChars
	default:
		count, limit = longSectionCount, longSectionChars
	}

	for i, section := range doc.Sections {
		if i == count {
			break
		}
		b.WriteString("## ")
		b.WriteString(section.Title)
		b.WriteString("\n")
		content := section.Content
		if limit > 0 {
			content = truncateRunes(content, limit)
		}
		b.WriteString(content)
		b.WriteString("\n\n")
	}

	if doc.Infobox != nil && len(doc.Infobox.Fields) > 0 {
		b.WriteString("\n## Key Information\n")
		for i, f := range doc.Infobox.Fields {
			if i == contextInfoboxFields {
				break
			}
			fmt.Fprintf(&b, "%s: %s\n", f.Key, f.Value)
		}
	}
	return b.String()
}

// ParseKeyFacts reads "Key: Value" lines, skipping lines without both parts.
func ParseKeyFacts(resp string) []domain.KeyFact {
	facts := []domain.KeyFact{}
	for _, line := range responseLines(resp) {
		key, value, ok := strings.Cut(line, ":")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			continue
		}
		facts = append(facts, domain.KeyFact{Key: key, Value: value})
	}
	return facts
}

// ParseDateEvents reads "Date | Event | Year" lines. An unparseable year
// leaves Year nil.
func ParseDateEvents(resp string) []domain.DateEvent {
	events := []domain.DateEvent{}
	for _, line := range responseLines(resp) {
		parts := splitPipes(line)
		if len(parts) < 3 || parts[1] == "" {
			continue
		}
		ev := domain.DateEvent{
			Date:      parts[0],
			Event:     parts[1],
			Precision: domain.DatePrecisionApproximate,
		}
		if year, err := strconv.Atoi(parts[2]); err == nil {
			ev.Year = &year
		}
		events = append(events, ev)
	}
	return events
}

// ParseLocations reads "Name | Type | ModernName" lines.
func ParseLocations(resp string) []domain.Location {
	locations := []domain.Location{}
	for _, line := range responseLines(resp) {
		parts := splitPipes(line)
		if len(parts) < 2 || parts[0] == "" {
			continue
		}
		loc := domain.Location{Name: parts[0], Type: domain.ParseLocationType(parts[1])}
		if len(parts) >= 3 {
			loc.ModernName = parts[2]
		}
		locations = append(locations, loc)
	}
	return locations
}

// ParseTopics reads one topic per line, keeping at most ten.
func ParseTopics(resp string) []string {
	topics := []string{}
	for _, line := range responseLines(resp) {
		if len(topics) == maxRelatedTopics {
			break
		}
		topics = append(topics, line)
	}
	return topics
}

// responseLines splits a response into trimmed non-empty lines with list
// bullets removed.
func responseLines(resp string) []string {
	var lines []string
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "-*•"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func splitPipes(line string) []string {
	if !strings.Contains(line, "|") {
		return nil
	}
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

// truncateRunes returns at most n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// safeRound rounds f to an int, mapping non-finite and out-of-range values
// to the nearest representable bound and NaN to zero.
func safeRound(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(math.Round(f))
}
