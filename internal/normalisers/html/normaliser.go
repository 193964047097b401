package html

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
	"github.com/custodia-labs/lexica-cli/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Default configuration values.
const (
	DefaultMaxTableRows = 500
	DefaultLinkBase     = "https://en.wikipedia.org"
)

// Config holds configuration for the normaliser.
type Config struct {
	// MaxTableRows caps the rows kept per table (default: 500).
	MaxTableRows int

	// LinkBase is prefixed to relative article links (default: https://en.wikipedia.org).
	LinkBase string

	// Logger receives debug output. Nil disables logging.
	Logger logger.Logger
}

// Normaliser converts article markup into a ParsedDocument.
type Normaliser struct {
	maxTableRows int
	linkBase     string
	log          logger.Logger
}

// New creates a new normaliser.
func New(cfg Config) *Normaliser {
	if cfg.MaxTableRows <= 0 {
		cfg.MaxTableRows = DefaultMaxTableRows
	}
	if cfg.LinkBase == "" {
		cfg.LinkBase = DefaultLinkBase
	}
	return &Normaliser{
		maxTableRows: cfg.MaxTableRows,
		linkBase:     strings.TrimRight(cfg.LinkBase, "/"),
		log:          logger.OrNop(cfg.Logger),
	}
}

// Normalise parses raw article markup.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.ParsedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if raw == nil || strings.TrimSpace(raw.Markup) == "" {
		return nil, &domain.ParseError{Kind: domain.ParseMissingContent}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw.Markup))
	if err != nil {
		return nil, &domain.ParseError{Kind: domain.ParseInvalidMarkup, Err: err}
	}

	sanitize(doc.Selection)

	root := contentRoot(doc)
	if root.Find("*").Length() == 0 && textOf(root) == "" {
		return nil, &domain.ParseError{Kind: domain.ParseMissingContent}
	}
	if root.Find("*").Length() == 0 {
		return nil, &domain.ParseError{Kind: domain.ParseInvalidMarkup}
	}

	infobox := extractInfobox(root)
	paragraphs := collectParagraphs(root)

	parsed := &domain.ParsedDocument{
		Title:          raw.Title,
		DisplayTitle:   displayTitle(raw),
		PageID:         raw.PageID,
		Categories:     append([]string{}, raw.Categories...),
		Infobox:        infobox,
		Tables:         n.extractTables(root),
		Sections:       buildSections(root, paragraphs),
		SeeAlso:        n.extractSeeAlso(root),
		AlternateNames: alternateNames(infobox),
		FirstParagraph: firstParagraph(root),
		WordCount:      wordCount(raw, root, paragraphs),
	}

	n.log.Debug("normalised article",
		logger.String("title", parsed.Title),
		logger.Int("sections", len(parsed.Sections)),
		logger.Int("tables", len(parsed.Tables)),
		logger.Int("paragraphs", len(paragraphs)),
		logger.Int("word_count", parsed.WordCount),
	)

	return parsed, nil
}

// contentRoot returns the article body, falling back to <body>.
func contentRoot(doc *goquery.Document) *goquery.Selection {
	if root := doc.Find("div.mw-parser-output").First(); root.Length() > 0 {
		return root
	}
	return doc.Find("body").First()
}

// wordCount prefers the fetch client's count of the original markup.
// An article with no substantive paragraphs has no countable prose.
func wordCount(raw *domain.RawDocument, root *goquery.Selection, paragraphs []string) int {
	if len(paragraphs) == 0 {
		return 0
	}
	if raw.WordCount > 0 {
		return raw.WordCount
	}
	return domain.CountWords(textOf(root))
}

func displayTitle(raw *domain.RawDocument) string {
	if raw.DisplayTitle == "" {
		return raw.Title
	}
	frag, err := goquery.NewDocumentFromReader(strings.NewReader(raw.DisplayTitle))
	if err != nil {
		return raw.Title
	}
	if title := textOf(frag.Selection); title != "" {
		return title
	}
	return raw.Title
}
