package domain

// RawDocument is an article exactly as the encyclopedia API returned it.
// It is produced by the fetch client and consumed only by the normaliser.
type RawDocument struct {
	// Title is the canonical page title after redirects.
	Title string

	// DisplayTitle may carry formatting the canonical title lacks.
	DisplayTitle string

	// PageID is the encyclopedia's numeric page identifier.
	PageID int

	// Markup is the rendered article HTML.
	Markup string

	// Categories are the page's category names without namespace prefix.
	Categories []string

	// WordCount is the number of words in the tag-stripped markup.
	WordCount int
}
