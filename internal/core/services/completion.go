package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
	"github.com/custodia-labs/lexica-cli/internal/logger"
)

// Key validation request parameters.
const (
	validationPrompt    = "Say 'OK'"
	validationMaxTokens = 10
	validationTimeout   = 30 * time.Second
)

// CompletionRequest is a single-turn completion.
type CompletionRequest struct {
	// Prompt is the user message.
	Prompt string

	// System is the optional system prompt.
	System string

	// MaxTokens overrides the configured output ceiling when positive.
	MaxTokens int
}

// CompletionService wraps the messages client with credential lookup,
// retry with linear backoff, timeouts and usage reporting.
type CompletionService struct {
	client   driven.MessagesClient
	secrets  driven.SecretStore
	settings domain.LLMSettings
	log      logger.Logger

	// sleep waits between attempts. Tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewCompletionService creates a completion service.
func NewCompletionService(
	client driven.MessagesClient,
	secrets driven.SecretStore,
	settings domain.LLMSettings,
	log logger.Logger,
) *CompletionService {
	return &CompletionService{
		client:   client,
		secrets:  secrets,
		settings: settings,
		log:      logger.OrNop(log),
		sleep:    sleepContext,
	}
}

// Complete sends the request and returns the first content block with the
// exact usage reported by the API.
//
// 401 and 403 fail immediately. 429, 5xx and transport failures are retried
// up to MaxRetries times, waiting RetryDelay*attempt before each retry. The
// whole call, retries included, is bounded by the resource timeout.
func (s *CompletionService) Complete(ctx context.Context, req CompletionRequest) (string, domain.TokenUsage, error) {
	apiKey, err := s.apiKey()
	if err != nil {
		return "", domain.TokenUsage{}, err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.settings.MaxTokens
	}
	msg := driven.MessageRequest{
		Model:     s.settings.Model,
		System:    req.System,
		Prompt:    req.Prompt,
		MaxTokens: maxTokens,
	}

	resourceTimeout := s.settings.ResourceTimeout()
	callCtx, cancel := context.WithTimeout(ctx, resourceTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= s.settings.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.settings.RetryDelay * time.Duration(attempt)
			s.log.Warn("retrying completion",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Error(lastErr),
			)
			if err := s.sleep(callCtx, delay); err != nil {
				return "", domain.TokenUsage{}, s.deadlineError(ctx, resourceTimeout, lastErr)
			}
		}

		resp, err := s.attempt(callCtx, apiKey, msg)
		if err == nil {
			s.log.Debug("completion finished",
				logger.Int("attempts", attempt+1),
				logger.Int("input_tokens", resp.Usage.InputTokens),
				logger.Int("output_tokens", resp.Usage.OutputTokens),
			)
			return resp.Text, resp.Usage, nil
		}

		var aiErr *domain.AIError
		if !errors.As(err, &aiErr) || !retryable(aiErr.Kind) {
			return "", domain.TokenUsage{}, err
		}
		if ctx.Err() != nil {
			return "", domain.TokenUsage{}, ctx.Err()
		}
		if callCtx.Err() != nil {
			return "", domain.TokenUsage{}, s.deadlineError(ctx, resourceTimeout, err)
		}
		lastErr = err
	}
	return "", domain.TokenUsage{}, lastErr
}

// attempt performs one request bounded by the per-request timeout and maps
// the outcome onto AIError.
func (s *CompletionService) attempt(ctx context.Context, apiKey string, msg driven.MessageRequest) (*driven.MessageResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.settings.Timeout)
	defer cancel()

	resp, err := s.client.CreateMessage(reqCtx, apiKey, msg)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, &domain.AIError{
			Kind: domain.AITimeout,
			Err:  &domain.TimeoutError{Op: "completion request", After: s.settings.Timeout, Err: err},
		}
	}
	return nil, classifyAIError(err)
}

// ValidateKey checks a key with a minimal request. Rate limiting counts as
// valid since the key was accepted.
func (s *CompletionService) ValidateKey(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return &domain.AIError{Kind: domain.AINoCredential}
	}

	ctx, cancel := context.WithTimeout(ctx, validationTimeout)
	defer cancel()

	_, err := s.client.CreateMessage(ctx, apiKey, driven.MessageRequest{
		Model:     s.settings.Model,
		Prompt:    validationPrompt,
		MaxTokens: validationMaxTokens,
	})
	if err == nil {
		return nil
	}

	var statusErr *driven.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.AIError{
			Kind: domain.AITimeout,
			Err:  &domain.TimeoutError{Op: "key validation", After: validationTimeout, Err: err},
		}
	}
	return classifyAIError(err)
}

func (s *CompletionService) apiKey() (string, error) {
	key, found, err := s.secrets.Get(domain.APIKeyName)
	if err != nil {
		return "", &domain.AIError{Kind: domain.AINoCredential, Err: err}
	}
	if !found || key == "" {
		return "", &domain.AIError{Kind: domain.AINoCredential, Err: domain.ErrNoCredential}
	}
	return key, nil
}

// deadlineError reports the resource timeout, or the caller's own
// cancellation when that is what ended the call.
func (s *CompletionService) deadlineError(ctx context.Context, after time.Duration, cause error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return &domain.AIError{
		Kind: domain.AITimeout,
		Err:  &domain.TimeoutError{Op: "completion", After: after, Err: cause},
	}
}

// classifyAIError maps a messages client error onto AIError.
func classifyAIError(err error) error {
	var statusErr *driven.StatusError
	switch {
	case errors.As(err, &statusErr):
		code := statusErr.StatusCode
		switch {
		case code == http.StatusUnauthorized:
			return &domain.AIError{Kind: domain.AIInvalidCredential, StatusCode: code, Err: err}
		case code == http.StatusForbidden:
			return &domain.AIError{Kind: domain.AIForbidden, StatusCode: code, Err: err}
		case code == http.StatusTooManyRequests:
			return &domain.AIError{Kind: domain.AIRateLimited, StatusCode: code, Err: err}
		case code >= 500 && code <= 599:
			return &domain.AIError{Kind: domain.AIServerError, StatusCode: code, Err: err}
		default:
			return &domain.AIError{Kind: domain.AIUnexpectedStatus, StatusCode: code, Err: err}
		}
	case errors.Is(err, driven.ErrMalformedResponse):
		return &domain.AIError{Kind: domain.AIInvalidResponse, Err: err}
	case errors.Is(err, context.Canceled):
		return err
	default:
		return &domain.AIError{Kind: domain.AINetwork, Err: err}
	}
}

func retryable(kind domain.AIErrorKind) bool {
	switch kind {
	case domain.AIRateLimited, domain.AIServerError, domain.AINetwork, domain.AITimeout:
		return true
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
