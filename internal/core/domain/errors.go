package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// Typed errors below match them through errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates an API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrNoCredential indicates no LLM API key is configured.
	ErrNoCredential = errors.New("no API key configured")

	// ErrInvalidCredential indicates the LLM API rejected the configured key.
	ErrInvalidCredential = errors.New("API key rejected")

	// ErrTimeout indicates an operation exceeded its deadline.
	ErrTimeout = errors.New("timed out")

	// ErrReadOnly indicates a store does not accept writes.
	ErrReadOnly = errors.New("store is read-only")
)

// ValidationReason classifies a rejected article identifier.
type ValidationReason string

// Validation reasons.
const (
	ValidationEmptyInput         ValidationReason = "empty_input"
	ValidationNotEncyclopediaURL ValidationReason = "not_encyclopedia_url"
	ValidationInvalidPath        ValidationReason = "invalid_path"
	ValidationBatchTooLarge      ValidationReason = "batch_too_large"
)

// ValidationError reports a malformed article URL, title or batch.
type ValidationError struct {
	Reason ValidationReason
	Input  string
	// Limit is set for batch size violations.
	Limit int
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ValidationEmptyInput:
		return "empty article reference"
	case ValidationNotEncyclopediaURL:
		return fmt.Sprintf("%q is not a Wikipedia URL", e.Input)
	case ValidationInvalidPath:
		return fmt.Sprintf("%q does not point at an article (expected /wiki/<title>)", e.Input)
	case ValidationBatchTooLarge:
		return fmt.Sprintf("batch of %s articles exceeds the limit of %d", e.Input, e.Limit)
	default:
		return fmt.Sprintf("invalid article reference %q", e.Input)
	}
}

// Is reports ErrInvalidInput for every validation failure.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// FetchErrorKind classifies a source-document API failure.
type FetchErrorKind string

// Fetch error kinds.
const (
	FetchNotFound         FetchErrorKind = "not_found"
	FetchRateLimited      FetchErrorKind = "rate_limited"
	FetchServerError      FetchErrorKind = "server_error"
	FetchUnexpectedStatus FetchErrorKind = "unexpected_status"
	FetchInvalidResponse  FetchErrorKind = "invalid_response"
	FetchNetwork          FetchErrorKind = "network"
)

// FetchError reports a network or status failure from the encyclopedia API.
type FetchError struct {
	Kind       FetchErrorKind
	Title      string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %q: %s", e.Title, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is maps fetch kinds onto domain sentinels.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == FetchNotFound
	case ErrRateLimited:
		return e.Kind == FetchRateLimited
	}
	return false
}

// ParseErrorKind classifies structurally unusable markup.
type ParseErrorKind string

// Parse error kinds.
const (
	ParseInvalidMarkup  ParseErrorKind = "invalid_markup"
	ParseMissingContent ParseErrorKind = "missing_content"
)

// ParseError reports markup that cannot be minimally structured.
type ParseError struct {
	Kind ParseErrorKind
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("parse: %s", e.Kind)
}

func (e *ParseError) Unwrap() error { return e.Err }

// AIErrorKind classifies an LLM failure.
type AIErrorKind string

// AI error kinds.
const (
	AINoCredential      AIErrorKind = "no_credential"
	AIInvalidCredential AIErrorKind = "invalid_credential"
	AIForbidden         AIErrorKind = "forbidden"
	AIRateLimited       AIErrorKind = "rate_limited"
	AIServerError       AIErrorKind = "server_error"
	AIInvalidResponse   AIErrorKind = "invalid_response"
	AIUnexpectedStatus  AIErrorKind = "unexpected_status"
	AINetwork           AIErrorKind = "network"
	AITimeout           AIErrorKind = "timeout"
)

// AIError reports a credential, rate-limit, server or response failure
// from the LLM API.
type AIError struct {
	Kind       AIErrorKind
	StatusCode int
	Err        error
}

func (e *AIError) Error() string {
	msg := "llm: " + string(e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AIError) Unwrap() error { return e.Err }

// Is maps AI kinds onto domain sentinels.
func (e *AIError) Is(target error) bool {
	switch target {
	case ErrNoCredential:
		return e.Kind == AINoCredential
	case ErrInvalidCredential:
		return e.Kind == AIInvalidCredential
	case ErrRateLimited:
		return e.Kind == AIRateLimited
	case ErrTimeout:
		return e.Kind == AITimeout
	}
	return false
}

// TimeoutError reports an operation that exceeded its deadline.
type TimeoutError struct {
	Op    string
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.After)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Is reports ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// IsAIErrorKind reports whether err wraps an AIError of the given kind.
func IsAIErrorKind(err error, kind AIErrorKind) bool {
	var aiErr *AIError
	return errors.As(err, &aiErr) && aiErr.Kind == kind
}

// IsFetchErrorKind reports whether err wraps a FetchError of the given kind.
func IsFetchErrorKind(err error, kind FetchErrorKind) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr) && fetchErr.Kind == kind
}
