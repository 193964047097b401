package domain

import "strings"

// ParsedDocument is the structured view of an article.
// It is produced once per extraction and read-only downstream.
type ParsedDocument struct {
	// Title is the canonical page title.
	Title string `json:"title"`

	// DisplayTitle is the formatted title, which may equal Title.
	DisplayTitle string `json:"display_title"`

	// PageID is the encyclopedia's numeric page identifier.
	PageID int `json:"page_id"`

	// Categories are the page's category names.
	Categories []string `json:"categories"`

	// Infobox is the key/value summary panel, nil when the article has none.
	Infobox *Infobox `json:"infobox,omitempty"`

	// Tables are the data tables in document order.
	Tables []Table `json:"tables"`

	// Sections hold every substantive paragraph, distributed across headings.
	Sections []Section `json:"sections"`

	// SeeAlso are the cross-reference links from the "See also" list.
	SeeAlso []Link `json:"see_also"`

	// AlternateNames are other names gathered from infobox fields.
	AlternateNames []string `json:"alternate_names"`

	// FirstParagraph is the lead paragraph, used as the non-AI summary.
	FirstParagraph string `json:"first_paragraph"`

	// WordCount reflects the original markup, independent of any summary.
	// It is zero when the article has no substantive paragraphs.
	WordCount int `json:"word_count"`
}

// Infobox is an ordered set of key/value pairs from an article's summary panel.
type Infobox struct {
	// Type is a label derived from the panel's class names, e.g. "Infobox person".
	Type string `json:"type,omitempty"`

	// Fields are the panel's rows in document order.
	Fields []InfoboxField `json:"fields"`
}

// InfoboxField is a single infobox row.
type InfoboxField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Lookup returns the value of the first field whose key matches
// case-insensitively.
func (i *Infobox) Lookup(key string) (string, bool) {
	if i == nil {
		return "", false
	}
	for _, f := range i.Fields {
		if strings.EqualFold(f.Key, key) {
			return f.Value, true
		}
	}
	return "", false
}

// Table is a data table extracted from the article body.
//
// len(Rows) == RowCount unless Truncated is true, in which case Rows holds
// exactly the configured cap and RowCount records the true total.
type Table struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
	RowCount  int        `json:"row_count"`
	Truncated bool       `json:"truncated"`
}

// Section is a titled run of article paragraphs.
type Section struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Level       int       `json:"level"`
	Content     string    `json:"content"`
	WordCount   int       `json:"word_count"`
	Subsections []Section `json:"subsections,omitempty"`
}

// Link is a reference to another article.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ArticlePreview is a lightweight description of an article,
// fetched without downloading or parsing the full markup.
type ArticlePreview struct {
	// Title is the canonical page title.
	Title string `json:"title"`

	// Extract is the plain-text introduction.
	Extract string `json:"extract"`

	// Categories are visible category names.
	Categories []string `json:"categories"`

	// ThumbnailURL is the lead image thumbnail, empty when none exists.
	ThumbnailURL string `json:"thumbnail_url,omitempty"`

	// PageURL is the canonical article URL.
	PageURL string `json:"page_url"`
}

// shortExtractLimit bounds ShortExtract output in characters.
const shortExtractLimit = 300

// ShortExtract returns the extract cut to at most 300 characters,
// ending at the last full sentence when one fits.
func (p ArticlePreview) ShortExtract() string {
	runes := []rune(p.Extract)
	if len(runes) <= shortExtractLimit {
		return p.Extract
	}
	cut := string(runes[:shortExtractLimit])
	if i := strings.LastIndex(cut, "."); i > 0 {
		return cut[:i+1]
	}
	return cut + "..."
}

// CountWords returns the number of whitespace-separated words in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
