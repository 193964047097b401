package driving

import (
	"context"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

// DiscoveryService suggests encyclopedia articles for a free-text topic.
// It holds no session state; callers accumulate batches in a SearchSession.
type DiscoveryService interface {
	// Discover returns the first batch of validated candidates and an
	// estimate of how many relevant articles exist.
	Discover(ctx context.Context, query string) (*domain.SearchBatch, error)

	// ContinueDiscovery returns a further batch, excluding titles already
	// loaded.
	ContinueDiscovery(ctx context.Context, query string, alreadyLoaded []string, batchNumber int) (*domain.SearchBatch, error)
}
