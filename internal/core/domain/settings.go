package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Summary ratio bounds. Ratios are fractions of the original word count.
const (
	MinSummaryRatio     = 0.4
	MaxSummaryRatio     = 0.7
	DefaultSummaryRatio = 0.5
)

// APIKeyName is the secret store key holding the LLM credential.
//
//nolint:gosec // G101: This is a key name, not a credential.
const APIKeyName = "anthropic_api_key"

// NormalizeSummaryRatio returns a usable summary ratio. Non-finite and
// non-positive values, or values above 1, are replaced by the default;
// anything else is clamped to [MinSummaryRatio, MaxSummaryRatio].
func NormalizeSummaryRatio(r float64) float64 {
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 || r > 1 {
		return DefaultSummaryRatio
	}
	return math.Min(math.Max(r, MinSummaryRatio), MaxSummaryRatio)
}

// LLMSettings configures the completion client.
type LLMSettings struct {
	// Model is the model identifier sent with every request.
	Model string

	// BaseURL is the API endpoint root.
	BaseURL string

	// MaxTokens is the default output token ceiling.
	MaxTokens int

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// RetryDelay is the linear backoff base.
	RetryDelay time.Duration
}

// ExtractionSettings configures the extraction pipeline.
type ExtractionSettings struct {
	// AIEnabled turns LLM enrichment on by default.
	AIEnabled bool

	// SummaryRatio is the default target summary ratio.
	SummaryRatio float64

	// RequestDelay paces consecutive extractions in a batch.
	RequestDelay time.Duration

	// MaxTableRows caps rows kept per table.
	MaxTableRows int
}

// SourceSettings configures the encyclopedia client.
type SourceSettings struct {
	// BaseURL is the MediaWiki api.php endpoint.
	BaseURL string

	// UserAgent identifies the client to the API operators.
	UserAgent string

	// Timeout bounds a single document fetch.
	Timeout time.Duration
}

// DiscoverySettings configures LLM-driven article discovery.
type DiscoverySettings struct {
	// BatchSize is the number of candidates requested per call.
	BatchSize int

	// MaxTokens is the output ceiling for discovery calls.
	MaxTokens int

	// ValidationBatchSize is the fan-out width of existence checks.
	ValidationBatchSize int

	// ValidationPause separates validation batches.
	ValidationPause time.Duration
}

// AppSettings holds all user-configurable settings.
type AppSettings struct {
	LLM        LLMSettings
	Extraction ExtractionSettings
	Source     SourceSettings
	Discovery  DiscoverySettings

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// DefaultAppSettings returns the settings used when nothing is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Model:      "claude-sonnet-4-20250514",
			BaseURL:    "https://api.anthropic.com",
			MaxTokens:  4096,
			Timeout:    240 * time.Second,
			MaxRetries: 3,
			RetryDelay: 2 * time.Second,
		},
		Extraction: ExtractionSettings{
			AIEnabled:    true,
			SummaryRatio: DefaultSummaryRatio,
			RequestDelay: time.Second,
			MaxTableRows: 500,
		},
		Source: SourceSettings{
			BaseURL:   "https://en.wikipedia.org/w/api.php",
			UserAgent: "Lexica/1.0 (https://github.com/custodia-labs/lexica-cli)",
			Timeout:   30 * time.Second,
		},
		Discovery: DiscoverySettings{
			BatchSize:           50,
			MaxTokens:           8192,
			ValidationBatchSize: 20,
			ValidationPause:     100 * time.Millisecond,
		},
		LogLevel: "warn",
	}
}

// Validate checks that settings are usable.
func (s AppSettings) Validate() error {
	var errs []error
	if s.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	if s.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("llm.max_tokens must be positive, got %d", s.LLM.MaxTokens))
	}
	if s.LLM.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("llm.timeout_seconds must be positive, got %s", s.LLM.Timeout))
	}
	if s.LLM.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("llm.max_retries must not be negative, got %d", s.LLM.MaxRetries))
	}
	if r := s.Extraction.SummaryRatio; r < MinSummaryRatio || r > MaxSummaryRatio {
		errs = append(errs, fmt.Errorf("extraction.summary_ratio must be within [%.1f, %.1f], got %g",
			MinSummaryRatio, MaxSummaryRatio, r))
	}
	if s.Extraction.MaxTableRows <= 0 {
		errs = append(errs, fmt.Errorf("extraction.max_table_rows must be positive, got %d", s.Extraction.MaxTableRows))
	}
	if s.Discovery.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("discovery.batch_size must be positive, got %d", s.Discovery.BatchSize))
	}
	if s.Discovery.ValidationBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("discovery.validation_batch_size must be positive, got %d",
			s.Discovery.ValidationBatchSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// ResourceTimeout bounds one logical completion call including retries.
func (l LLMSettings) ResourceTimeout() time.Duration {
	return 2 * l.Timeout
}
