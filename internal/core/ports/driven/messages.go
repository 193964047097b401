package driven

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

// ErrMalformedResponse indicates an API response body could not be decoded.
var ErrMalformedResponse = errors.New("malformed response")

// MessagesClient performs one HTTP round trip against the LLM messages API.
// It does not retry. Non-200 responses are returned as *StatusError and
// undecodable bodies wrap ErrMalformedResponse; transport failures are
// returned unchanged.
type MessagesClient interface {
	CreateMessage(ctx context.Context, apiKey string, req MessageRequest) (*MessageResponse, error)
}

// MessageRequest is a single-turn completion request.
type MessageRequest struct {
	// Model is the model identifier.
	Model string

	// System is the optional system prompt.
	System string

	// Prompt is the user message.
	Prompt string

	// MaxTokens is the output token ceiling.
	MaxTokens int
}

// MessageResponse is the decoded reply.
type MessageResponse struct {
	// Text is the first content block.
	Text string

	// StopReason is the API's reason for ending generation.
	StopReason string

	// Usage is the exact token usage reported by the API.
	Usage domain.TokenUsage
}

// StatusError reports a non-200 HTTP status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}
