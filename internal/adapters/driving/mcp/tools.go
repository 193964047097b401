package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

// ArticleInput names an article by URL or title.
type ArticleInput struct {
	Article string `json:"article" jsonschema:"article URL or title, e.g. Ada Lovelace or https://en.wikipedia.org/wiki/Rome"`
}

// ExtractInput is the input schema for the extract_article tool.
type ExtractInput struct {
	Article      string   `json:"article" jsonschema:"article URL or title"`
	AI           *bool    `json:"ai,omitempty" jsonschema:"run AI enrichment (default from settings)"`
	SummaryRatio *float64 `json:"summary_ratio,omitempty" jsonschema:"target summary length as a fraction of the article, 0.4 to 0.7"`
	Save         *bool    `json:"save,omitempty" jsonschema:"archive the extraction so it can be read as a resource later"`
}

// ExtractOutput is the output schema for the extract_article tool.
type ExtractOutput struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	URL               string             `json:"url"`
	Type              string             `json:"type"`
	Summary           string             `json:"summary"`
	AIEnhanced        bool               `json:"ai_enhanced"`
	WordCount         int                `json:"word_count"`
	OriginalWordCount int                `json:"original_word_count"`
	AlternateNames    []string           `json:"alternate_names"`
	KeyFacts          []domain.KeyFact   `json:"key_facts"`
	Dates             []domain.DateEvent `json:"dates"`
	Locations         []domain.Location  `json:"locations"`
	RelatedTopics     []string           `json:"related_topics"`
	Categories        []string           `json:"categories"`
	Infobox           *domain.Infobox    `json:"infobox,omitempty"`
	Tables            []domain.Table     `json:"tables"`
	Sections          []SectionOutput    `json:"sections"`
	SeeAlso           []domain.Link      `json:"see_also"`
	ExtractedAt       string             `json:"extracted_at"`
	TokensUsed        *domain.TokenUsage `json:"tokens_used,omitempty"`
	Saved             bool               `json:"saved"`
}

// SectionOutput is one article section. Nested sections are flattened in
// document order; Level keeps the hierarchy.
type SectionOutput struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Level     int    `json:"level"`
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
}

// PreviewOutput is the output schema for the preview_article tool.
type PreviewOutput struct {
	Title        string   `json:"title"`
	Extract      string   `json:"extract"`
	Categories   []string `json:"categories"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	URL          string   `json:"url"`
}

// EstimateOutput is the output schema for the estimate_extraction tool.
type EstimateOutput struct {
	Title        string  `json:"title"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"estimated_cost_usd"`
}

// DiscoverInput is the input schema for the discover_articles tool.
type DiscoverInput struct {
	Query string `json:"query" jsonschema:"topic to find encyclopedia articles for"`
}

// ContinueInput is the input schema for the continue_discovery tool.
type ContinueInput struct {
	Query         string   `json:"query" jsonschema:"the query passed to discover_articles"`
	AlreadyLoaded []string `json:"already_loaded" jsonschema:"titles returned by earlier calls"`
	BatchNumber   int      `json:"batch_number" jsonschema:"number of batches loaded so far, starting at 1"`
}

// DiscoverOutput is the output schema for the discovery tools.
type DiscoverOutput struct {
	Articles       []ArticleOutput `json:"articles"`
	Count          int             `json:"count"`
	EstimatedTotal int             `json:"estimated_total,omitempty"`
	HasMore        bool            `json:"has_more"`
	InputTokens    int             `json:"input_tokens"`
	OutputTokens   int             `json:"output_tokens"`
}

// ArticleOutput is a single discovered article.
type ArticleOutput struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "extract_article",
		Description: "Fetch a Wikipedia article and return a structured record: summary, type, " +
			"key facts, dates, locations, related topics, infobox, tables and sections",
	}, s.handleExtract)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "preview_article",
		Description: "Return the introduction, categories and thumbnail of a Wikipedia article without AI",
	}, s.handlePreview)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "estimate_extraction",
		Description: "Estimate the tokens and cost of extracting a Wikipedia article with AI",
	}, s.handleEstimate)

	if s.ports.Discovery == nil {
		return
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "discover_articles",
		Description: "Suggest existing Wikipedia articles relevant to a topic",
	}, s.handleDiscover)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "continue_discovery",
		Description: "Load more articles for a topic, excluding titles already returned",
	}, s.handleContinue)
}

// handleExtract handles the extract_article tool invocation.
func (s *Server) handleExtract(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractInput,
) (*mcp.CallToolResult, ExtractOutput, error) {
	ref, err := domain.ParseArticleRef(input.Article)
	if err != nil {
		return nil, ExtractOutput{}, err
	}

	opts := s.ports.Defaults
	if input.AI != nil {
		opts.AIEnabled = *input.AI
	}
	if input.SummaryRatio != nil {
		opts.SummaryRatio = *input.SummaryRatio
	}
	if input.Save != nil {
		opts.Save = *input.Save
	}
	if s.ports.Archive == nil {
		opts.Save = false
	}

	extraction, err := s.ports.Extraction.Extract(ctx, ref, opts, nil)
	if err != nil {
		return nil, ExtractOutput{}, err
	}
	return nil, toExtractOutput(extraction, opts.Save), nil
}

// handlePreview handles the preview_article tool invocation.
func (s *Server) handlePreview(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ArticleInput,
) (*mcp.CallToolResult, PreviewOutput, error) {
	preview, err := s.ports.Extraction.Preview(ctx, input.Article)
	if err != nil {
		return nil, PreviewOutput{}, err
	}

	return nil, PreviewOutput{
		Title:        preview.Title,
		Extract:      preview.Extract,
		Categories:   preview.Categories,
		ThumbnailURL: preview.ThumbnailURL,
		URL:          preview.PageURL,
	}, nil
}

// handleEstimate handles the estimate_extraction tool invocation.
func (s *Server) handleEstimate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ArticleInput,
) (*mcp.CallToolResult, EstimateOutput, error) {
	ref, err := domain.ParseArticleRef(input.Article)
	if err != nil {
		return nil, EstimateOutput{}, err
	}
	estimate, err := s.ports.Extraction.Estimate(ctx, ref)
	if err != nil {
		return nil, EstimateOutput{}, err
	}

	return nil, EstimateOutput{
		Title:        ref.Title,
		InputTokens:  estimate.InputTokens,
		OutputTokens: estimate.OutputTokens,
		CostUSD:      estimate.Cost(domain.DefaultPricing),
	}, nil
}

// handleDiscover handles the discover_articles tool invocation.
func (s *Server) handleDiscover(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DiscoverInput,
) (*mcp.CallToolResult, DiscoverOutput, error) {
	if s.ports.Discovery == nil {
		return nil, DiscoverOutput{}, errDiscoveryUnavailable
	}

	batch, err := s.ports.Discovery.Discover(ctx, input.Query)
	if err != nil {
		return nil, DiscoverOutput{}, err
	}
	return nil, toDiscoverOutput(batch), nil
}

// handleContinue handles the continue_discovery tool invocation.
func (s *Server) handleContinue(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContinueInput,
) (*mcp.CallToolResult, DiscoverOutput, error) {
	if s.ports.Discovery == nil {
		return nil, DiscoverOutput{}, errDiscoveryUnavailable
	}

	batch, err := s.ports.Discovery.ContinueDiscovery(ctx,
		strings.TrimSpace(input.Query), input.AlreadyLoaded, max(input.BatchNumber, 1))
	if err != nil {
		return nil, DiscoverOutput{}, err
	}
	return nil, toDiscoverOutput(batch), nil
}

func toExtractOutput(e *domain.Extraction, saved bool) ExtractOutput {
	return ExtractOutput{
		ID:                e.ID,
		Title:             e.Article.Title,
		URL:               e.Metadata.SourceURL,
		Type:              e.Article.Type.String(),
		Summary:           e.Article.Summary,
		AIEnhanced:        e.Metadata.AIEnhanced,
		WordCount:         e.Article.WordCount,
		OriginalWordCount: e.Article.OriginalWordCount,
		AlternateNames:    e.Article.AlternateNames,
		KeyFacts:          e.Classification.KeyFacts,
		Dates:             e.Temporal.Dates,
		Locations:         e.Geographic.Locations,
		RelatedTopics:     e.Classification.RelatedTopics,
		Categories:        e.Classification.Categories,
		Infobox:           e.Structured.Infobox,
		Tables:            e.Structured.Tables,
		Sections:          flattenSections(e.Structured.Sections, nil),
		SeeAlso:           e.References.SeeAlso,
		ExtractedAt:       e.Metadata.ExtractedAt.Format(time.RFC3339),
		TokensUsed:        e.Metadata.TokensUsed,
		Saved:             saved,
	}
}

func toDiscoverOutput(batch *domain.SearchBatch) DiscoverOutput {
	out := DiscoverOutput{
		Articles:       make([]ArticleOutput, len(batch.Candidates)),
		Count:          len(batch.Candidates),
		EstimatedTotal: batch.EstimatedTotal,
		HasMore:        batch.HasMore,
		InputTokens:    batch.Usage.InputTokens,
		OutputTokens:   batch.Usage.OutputTokens,
	}
	for i, c := range batch.Candidates {
		out.Articles[i] = ArticleOutput{
			Title:       c.Title,
			URL:         c.URL,
			Description: c.Description,
		}
	}
	return out
}

func flattenSections(sections []domain.Section, out []SectionOutput) []SectionOutput {
	if out == nil {
		out = []SectionOutput{}
	}
	for _, sec := range sections {
		out = append(out, SectionOutput{
			ID:        sec.ID,
			Title:     sec.Title,
			Level:     sec.Level,
			Content:   sec.Content,
			WordCount: sec.WordCount,
		})
		out = flattenSections(sec.Subsections, out)
	}
	return out
}
