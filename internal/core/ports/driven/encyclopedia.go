package driven

import (
	"context"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

// EncyclopediaClient fetches articles from the source encyclopedia.
// Failures are reported as *domain.FetchError.
type EncyclopediaClient interface {
	// FetchDocument returns the rendered markup and metadata of an article.
	FetchDocument(ctx context.Context, title string) (*domain.RawDocument, error)

	// FetchPreview returns a short plain-text description of an article.
	FetchPreview(ctx context.Context, title string) (*domain.ArticlePreview, error)

	// PageExists reports whether an article exists. It returns (false, nil)
	// only when the API explicitly reports the page as missing; any
	// indeterminate outcome is returned as an error.
	PageExists(ctx context.Context, title string) (bool, error)
}
