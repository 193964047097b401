package driven

import (
	"context"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

// Normaliser turns article markup into a structured document.
// It performs no network or LLM calls and must be deterministic:
// normalising the same RawDocument twice yields equal results.
type Normaliser interface {
	// Normalise parses raw markup. Unusable markup is reported as
	// *domain.ParseError.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.ParsedDocument, error)
}
