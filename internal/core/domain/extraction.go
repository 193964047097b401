package domain

import "time"

// ExtractionVersion is the artifact format version.
const ExtractionVersion = "1.0"

// ExtractionStep names a phase of the extraction pipeline.
type ExtractionStep string

// Extraction steps, in the order they are reported.
const (
	StepFetching            ExtractionStep = "fetching"
	StepParsing             ExtractionStep = "parsing"
	StepGeneratingSummary   ExtractionStep = "generating_summary"
	StepClassifying         ExtractionStep = "classifying"
	StepExtractingKeyFacts  ExtractionStep = "extracting_key_facts"
	StepExtractingDates     ExtractionStep = "extracting_dates"
	StepExtractingLocations ExtractionStep = "extracting_locations"
	StepExtractingTopics    ExtractionStep = "extracting_topics"
	StepComplete            ExtractionStep = "complete"
)

// Description returns a human-readable label for the step.
func (s ExtractionStep) Description() string {
	switch s {
	case StepFetching:
		return "Fetching article"
	case StepParsing:
		return "Parsing content"
	case StepGeneratingSummary:
		return "Generating summary"
	case StepClassifying:
		return "Classifying article"
	case StepExtractingKeyFacts:
		return "Extracting key facts"
	case StepExtractingDates:
		return "Extracting dates"
	case StepExtractingLocations:
		return "Extracting locations"
	case StepExtractingTopics:
		return "Extracting related topics"
	case StepComplete:
		return "Complete"
	default:
		return string(s)
	}
}

// ExtractOptions control a single extraction.
type ExtractOptions struct {
	// AIEnabled requests LLM enrichment.
	AIEnabled bool

	// SummaryRatio is the target summary length as a fraction of the article.
	SummaryRatio float64

	// Save archives the finished extraction.
	Save bool
}

// Extraction is the immutable artifact produced for one article.
// It is self-describing: rendering it needs no further lookups.
// Edits go through the With* methods, which return modified copies.
type Extraction struct {
	ID             string             `json:"id"`
	Metadata       ExtractionMetadata `json:"metadata"`
	Article        ArticleInfo        `json:"article"`
	Temporal       Temporal           `json:"temporal"`
	Geographic     Geographic         `json:"geographic"`
	Structured     StructuredData     `json:"structured"`
	Classification Classification     `json:"classification"`
	References     References         `json:"references"`
}

// ExtractionMetadata records how and when the extraction was produced.
type ExtractionMetadata struct {
	ExtractedAt time.Time `json:"extracted_at"`
	SourceURL   string    `json:"source_url"`
	PageID      int       `json:"page_id"`
	Version     string    `json:"version"`

	// AIEnhanced is true only when enrichment completed successfully.
	AIEnhanced   bool    `json:"ai_enhanced"`
	SummaryRatio float64 `json:"summary_ratio"`

	// TokensUsed is set whenever LLM calls were made, including failed runs.
	TokensUsed *TokenUsage `json:"tokens_used,omitempty"`
}

// ArticleInfo is the article-level summary block.
type ArticleInfo struct {
	Title          string      `json:"title"`
	DisplayTitle   string      `json:"display_title"`
	AlternateNames []string    `json:"alternate_names"`
	Summary        string      `json:"summary"`
	Type           ArticleType `json:"type"`

	// WordCount counts the summary.
	WordCount int `json:"word_count"`

	// OriginalWordCount counts the source article.
	OriginalWordCount int `json:"original_word_count"`
}

// Temporal holds dated events.
type Temporal struct {
	Dates []DateEvent `json:"dates"`
}

// Geographic holds locations.
type Geographic struct {
	Locations []Location `json:"locations"`
}

// StructuredData holds the parser's structural output.
type StructuredData struct {
	Infobox  *Infobox  `json:"infobox,omitempty"`
	Tables   []Table   `json:"tables"`
	Sections []Section `json:"sections"`
}

// Classification holds categories and derived facts.
type Classification struct {
	Categories    []string  `json:"categories"`
	KeyFacts      []KeyFact `json:"key_facts"`
	RelatedTopics []string  `json:"related_topics"`
}

// References holds cross-references.
type References struct {
	SeeAlso []Link `json:"see_also"`
}

// NewExtraction assembles an Extraction from a parsed document and its
// enrichment (or fallback).
func NewExtraction(id, sourceURL string, doc *ParsedDocument, enr EnrichmentResult, meta ExtractionMetadata) *Extraction {
	meta.SourceURL = sourceURL
	meta.PageID = doc.PageID
	if meta.Version == "" {
		meta.Version = ExtractionVersion
	}

	return &Extraction{
		ID:       id,
		Metadata: meta,
		Article: ArticleInfo{
			Title:             doc.Title,
			DisplayTitle:      doc.DisplayTitle,
			AlternateNames:    nonNil(doc.AlternateNames),
			Summary:           enr.Summary,
			Type:              enr.ArticleType,
			WordCount:         CountWords(enr.Summary),
			OriginalWordCount: doc.WordCount,
		},
		Temporal:   Temporal{Dates: nonNil(enr.Dates)},
		Geographic: Geographic{Locations: nonNil(enr.Locations)},
		Structured: StructuredData{
			Infobox:  doc.Infobox,
			Tables:   nonNil(doc.Tables),
			Sections: nonNil(doc.Sections),
		},
		Classification: Classification{
			Categories:    nonNil(doc.Categories),
			KeyFacts:      nonNil(enr.KeyFacts),
			RelatedTopics: nonNil(enr.RelatedTopics),
		},
		References: References{SeeAlso: nonNil(doc.SeeAlso)},
	}
}

// WithSummary returns a copy with the summary replaced.
func (e Extraction) WithSummary(summary string) Extraction {
	e.Article.Summary = summary
	e.Article.WordCount = CountWords(summary)
	return e
}

// WithArticleType returns a copy with the article type replaced.
func (e Extraction) WithArticleType(t ArticleType) Extraction {
	e.Article.Type = t
	return e
}

// Summary returns the archive listing entry for the extraction.
func (e *Extraction) Summary() ExtractionSummary {
	return ExtractionSummary{
		ID:          e.ID,
		Title:       e.Article.Title,
		SourceURL:   e.Metadata.SourceURL,
		Type:        e.Article.Type,
		AIEnhanced:  e.Metadata.AIEnhanced,
		ExtractedAt: e.Metadata.ExtractedAt,
	}
}

// ExtractionSummary is a compact archive listing entry.
type ExtractionSummary struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	SourceURL   string      `json:"source_url"`
	Type        ArticleType `json:"type"`
	AIEnhanced  bool        `json:"ai_enhanced"`
	ExtractedAt time.Time   `json:"extracted_at"`
}

// BatchFailure records an article that could not be extracted in a batch.
type BatchFailure struct {
	Ref ArticleRef
	Err error
}

// BatchResult is the outcome of a sequential multi-article run.
type BatchResult struct {
	Extractions []*Extraction
	Failures    []BatchFailure
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
