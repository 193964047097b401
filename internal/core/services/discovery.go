package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driving"
	"github.com/custodia-labs/lexica-cli/internal/logger"
)

// Ensure DiscoveryService implements the interface.
var _ driving.DiscoveryService = (*DiscoveryService)(nil)

// maxExcludedTitles caps the already-loaded titles sent in a continuation prompt.
const maxExcludedTitles = 50

// DiscoveryConfig holds the dependencies of a DiscoveryService.
type DiscoveryConfig struct {
	Completer    Completer
	Encyclopedia driven.EncyclopediaClient
	Settings     domain.DiscoverySettings

	// Host is the encyclopedia host used for result URLs.
	// Defaults to domain.DefaultArticleHost.
	Host string

	// Prompts overrides the embedded prompt templates. Optional.
	Prompts driven.PromptStore
	Logger  logger.Logger
}

// DiscoveryService asks the LLM for candidate articles and keeps those the
// encyclopedia does not report as missing.
type DiscoveryService struct {
	completer    Completer
	encyclopedia driven.EncyclopediaClient
	settings     domain.DiscoverySettings
	host         string
	prompts      *promptLoader
	log          logger.Logger

	sleep func(ctx context.Context, d time.Duration) error
	newID func() string
}

// NewDiscoveryService creates a discovery service. Non-positive settings
// take their defaults.
func NewDiscoveryService(cfg DiscoveryConfig) *DiscoveryService {
	defaults := domain.DefaultAppSettings().Discovery
	settings := cfg.Settings
	if settings.BatchSize <= 0 {
		settings.BatchSize = defaults.BatchSize
	}
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = defaults.MaxTokens
	}
	if settings.ValidationBatchSize <= 0 {
		settings.ValidationBatchSize = defaults.ValidationBatchSize
	}
	if settings.ValidationPause < 0 {
		settings.ValidationPause = defaults.ValidationPause
	}
	host := cfg.Host
	if host == "" {
		host = domain.DefaultArticleHost
	}
	return &DiscoveryService{
		completer:    cfg.Completer,
		encyclopedia: cfg.Encyclopedia,
		settings:     settings,
		host:         host,
		prompts:      newPromptLoader(cfg.Prompts),
		log:          logger.OrNop(cfg.Logger),
		sleep:        sleepContext,
		newID:        uuid.NewString,
	}
}

// SetPromptStore implements driven.PromptStoreAware.
func (s *DiscoveryService) SetPromptStore(store driven.PromptStore) {
	s.prompts = newPromptLoader(store)
}

// Discover returns the first batch of validated candidates for query.
func (s *DiscoveryService) Discover(ctx context.Context, query string) (*domain.SearchBatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("discover: %w: empty query", domain.ErrInvalidInput)
	}

	prompt, err := s.prompts.format(driven.PromptDiscoveryEstimate, query, s.settings.BatchSize)
	if err != nil {
		return nil, err
	}
	parsed, usage, err := s.ask(ctx, prompt)
	if err != nil {
		return nil, err
	}

	results, err := s.validate(ctx, dedupeCandidates(parsed.Articles, nil))
	if err != nil {
		return nil, err
	}

	s.log.Info("discovery complete",
		logger.String("query", query),
		logger.Int("suggested", len(parsed.Articles)),
		logger.Int("validated", len(results)),
		logger.Int("estimated_total", parsed.EstimatedTotal),
	)

	return &domain.SearchBatch{
		Candidates:     results,
		EstimatedTotal: max(parsed.EstimatedTotal, len(results)),
		HasMore:        parsed.HasMore,
		Usage:          usage,
	}, nil
}

// ContinueDiscovery returns a further batch. Titles matching alreadyLoaded,
// ignoring case, are dropped.
func (s *DiscoveryService) ContinueDiscovery(
	ctx context.Context,
	query string,
	alreadyLoaded []string,
	batchNumber int,
) (*domain.SearchBatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("continue discovery: %w: empty query", domain.ErrInvalidInput)
	}

	excluded := alreadyLoaded
	if len(excluded) > maxExcludedTitles {
		excluded = excluded[:maxExcludedTitles]
	}
	prompt, err := s.prompts.format(driven.PromptDiscoveryContinue,
		query, max(batchNumber, 0)+1, s.settings.BatchSize, strings.Join(excluded, "\n"))
	if err != nil {
		return nil, err
	}
	parsed, usage, err := s.ask(ctx, prompt)
	if err != nil {
		return nil, err
	}

	fresh := dedupeCandidates(parsed.Articles, alreadyLoaded)
	if dropped := len(parsed.Articles) - len(fresh); dropped > 0 {
		s.log.Debug("dropped repeated candidates", logger.Int("count", dropped))
	}

	results, err := s.validate(ctx, fresh)
	if err != nil {
		return nil, err
	}

	s.log.Info("discovery continuation complete",
		logger.String("query", query),
		logger.Int("batch", batchNumber),
		logger.Int("validated", len(results)),
	)

	return &domain.SearchBatch{
		Candidates: results,
		HasMore:    parsed.HasMore,
		Usage:      usage,
	}, nil
}

func (s *DiscoveryService) ask(ctx context.Context, prompt string) (ParsedDiscovery, domain.TokenUsage, error) {
	system, err := s.prompts.format(driven.PromptDiscoverySystem)
	if err != nil {
		return ParsedDiscovery{}, domain.TokenUsage{}, err
	}
	text, usage, err := s.completer.Complete(ctx, CompletionRequest{
		Prompt:    prompt,
		System:    system,
		MaxTokens: s.settings.MaxTokens,
	})
	if err != nil {
		return ParsedDiscovery{}, usage, fmt.Errorf("discovery request: %w", err)
	}

	parsed, tier := ParseDiscoveryResponse(text)
	if tier != TierClean {
		s.log.Warn("discovery response recovered",
			logger.String("tier", string(tier)),
			logger.Int("articles", len(parsed.Articles)),
			logger.Int("response_chars", len(text)),
		)
	}
	return parsed, usage, nil
}

// validate checks candidates in fixed-size concurrent batches. A check that
// fails for any reason other than cancellation counts as existing; only an
// explicit missing page drops a candidate. Order is preserved.
func (s *DiscoveryService) validate(ctx context.Context, candidates []domain.SearchCandidate) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0, len(candidates))
	size := s.settings.ValidationBatchSize

	for start := 0; start < len(candidates); start += size {
		if start > 0 {
			if err := s.sleep(ctx, s.settings.ValidationPause); err != nil {
				return nil, err
			}
		}
		batch := candidates[start:min(start+size, len(candidates))]
		keep := make([]bool, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for i, c := range batch {
			g.Go(func() error {
				exists, err := s.encyclopedia.PageExists(gctx, c.Title)
				if err != nil {
					if ctxErr := ctx.Err(); ctxErr != nil {
						return ctxErr
					}
					s.log.Warn("existence check failed, keeping candidate",
						logger.String("title", c.Title),
						logger.Error(err),
					)
					keep[i] = true
					return nil
				}
				keep[i] = exists
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for i, c := range batch {
			if !keep[i] {
				s.log.Debug("candidate missing", logger.String("title", c.Title))
				continue
			}
			results = append(results, domain.SearchResult{
				ID:          s.newID(),
				Title:       c.Title,
				URL:         domain.ArticleURL(s.host, c.Title),
				Description: c.Description,
			})
		}
	}
	return results, nil
}

// dedupeCandidates drops blank titles and titles already seen, ignoring case,
// either earlier in the list or in exclude.
func dedupeCandidates(candidates []domain.SearchCandidate, exclude []string) []domain.SearchCandidate {
	seen := make(map[string]bool, len(exclude)+len(candidates))
	for _, t := range exclude {
		seen[strings.ToLower(strings.TrimSpace(t))] = true
	}
	out := make([]domain.SearchCandidate, 0, len(candidates))
	for _, c := range candidates {
		c.Title = strings.TrimSpace(c.Title)
		key := strings.ToLower(c.Title)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// RecoveryTier names how a discovery response was decoded.
type RecoveryTier string

// Recovery tiers, in the order they are attempted.
const (
	TierClean    RecoveryTier = "clean"
	TierRepaired RecoveryTier = "repaired"
	TierRegex    RecoveryTier = "regex"
	TierFailed   RecoveryTier = "failed"
)

// discoveryResponse is the decoded LLM reply.
type discoveryResponse struct {
	EstimatedTotal int                      `json:"estimatedTotal"`
	Reasoning      string                   `json:"reasoning"`
	Articles       []domain.SearchCandidate `json:"articles"`
	HasMore        *bool                    `json:"hasMore"`
}

// ParsedDiscovery is a decoded discovery reply with HasMore resolved.
type ParsedDiscovery struct {
	EstimatedTotal int
	Articles       []domain.SearchCandidate
	HasMore        bool
}

var estimatePattern = regexp.MustCompile(`"estimatedTotal"\s*:\s*(\d+)`)

var candidatePattern = regexp.MustCompile(`\{\s*"title"\s*:\s*"((?:[^"\\]|\\.)+)"\s*,\s*"description"\s*:\s*"((?:[^"\\]|\\.)*)"\s*\}`)

// ParseDiscoveryResponse decodes an LLM discovery reply, recovering from
// markdown fences and truncation. It tries a clean decode, then a
// bracket repair when the reply does not end in a closing bracket, then a
// regular expression over the raw objects.
func ParseDiscoveryResponse(text string) (ParsedDiscovery, RecoveryTier) {
	cleaned := stripFences(text)
	start := strings.Index(cleaned, "{")
	if start < 0 {
		return ParsedDiscovery{}, TierFailed
	}
	cleaned = cleaned[start:]

	tier := TierClean
	if last := cleaned[len(cleaned)-1]; last != '}' && last != ']' {
		cleaned = repairTruncatedJSON(cleaned)
		tier = TierRepaired
	}
	if end := strings.LastIndex(cleaned, "}"); end >= 0 {
		cleaned = cleaned[:end+1]
	}

	var resp discoveryResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err == nil {
		out := ParsedDiscovery{
			EstimatedTotal: max(resp.EstimatedTotal, 0),
			Articles:       nonBlankCandidates(resp.Articles),
			HasMore:        resp.EstimatedTotal > 0,
		}
		if resp.HasMore != nil {
			out.HasMore = *resp.HasMore
		}
		return out, tier
	}

	articles := extractCandidates(cleaned)
	if len(articles) == 0 {
		return ParsedDiscovery{}, TierFailed
	}
	estimate := len(articles)
	if m := estimatePattern.FindStringSubmatch(cleaned); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			estimate = max(n, estimate)
		}
	}
	return ParsedDiscovery{EstimatedTotal: estimate, Articles: articles, HasMore: true}, TierRegex
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```json"); ok {
		s = rest
	} else if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = rest
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// repairTruncatedJSON trims s after the last complete object and closes
// every bracket still open at that point.
func repairTruncatedJSON(s string) string {
	if i := strings.LastIndex(s, `"}`); i >= 0 {
		s = s[:i+2]
	}

	var (
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			stack = append(stack, '}')
		case c == '[':
			stack = append(stack, ']')
		case c == '}' || c == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(s)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}

// extractCandidates pulls complete title/description objects out of text
// that is not valid JSON.
func extractCandidates(s string) []domain.SearchCandidate {
	var out []domain.SearchCandidate
	for _, m := range candidatePattern.FindAllStringSubmatch(s, -1) {
		title := unquoteJSON(m[1])
		if strings.TrimSpace(title) == "" {
			continue
		}
		out = append(out, domain.SearchCandidate{Title: title, Description: unquoteJSON(m[2])})
	}
	return out
}

func unquoteJSON(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

func nonBlankCandidates(in []domain.SearchCandidate) []domain.SearchCandidate {
	out := make([]domain.SearchCandidate, 0, len(in))
	for _, c := range in {
		if strings.TrimSpace(c.Title) != "" {
			out = append(out, c)
		}
	}
	return out
}
