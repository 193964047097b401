package driving

import "github.com/custodia-labs/lexica-cli/internal/core/domain"

// ProgressObserver receives step transitions from a running extraction.
// Steps arrive in pipeline order on the caller's goroutine. Observers are for
// display only and must not block.
type ProgressObserver interface {
	OnStep(step domain.ExtractionStep)
}

// BatchObserver is optionally implemented by a ProgressObserver to learn
// which article of a batch is starting.
type BatchObserver interface {
	OnArticle(index, total int, ref domain.ArticleRef)
}

// ProgressFunc adapts a function to ProgressObserver.
type ProgressFunc func(step domain.ExtractionStep)

// OnStep calls f(step).
func (f ProgressFunc) OnStep(step domain.ExtractionStep) {
	f(step)
}
