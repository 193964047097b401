package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMMaxTokens  = "llm.max_tokens"
	keyLLMTimeout    = "llm.timeout_seconds"
	keyLLMMaxRetries = "llm.max_retries"
	keyLLMRetryDelay = "llm.retry_delay_ms"

	keyAIEnabled    = "extraction.ai_enabled"
	keySummaryRatio = "extraction.summary_ratio"
	keyRequestDelay = "extraction.request_delay_ms"
	keyMaxTableRows = "extraction.max_table_rows"

	keySourceBaseURL   = "source.base_url"
	keySourceUserAgent = "source.user_agent"
	keySourceTimeout   = "source.timeout_seconds"

	keyDiscoveryBatchSize  = "discovery.batch_size"
	keyDiscoveryMaxTokens  = "discovery.max_tokens"
	keyValidationBatchSize = "discovery.validation_batch_size"
	keyValidationPause     = "discovery.validation_pause_ms"

	keyLogLevel = "log.level"
)

// settingKind is how a setting is stored in the config file.
type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindSeconds
	kindMillis
)

// binding ties a config key to a field of AppSettings.
type binding struct {
	key  string
	kind settingKind
	ptr  any
}

// bindings lists every recognised key against the fields of s.
func bindings(s *domain.AppSettings) []binding {
	return []binding{
		{keyLLMModel, kindString, &s.LLM.Model},
		{keyLLMBaseURL, kindString, &s.LLM.BaseURL},
		{keyLLMMaxTokens, kindInt, &s.LLM.MaxTokens},
		{keyLLMTimeout, kindSeconds, &s.LLM.Timeout},
		{keyLLMMaxRetries, kindInt, &s.LLM.MaxRetries},
		{keyLLMRetryDelay, kindMillis, &s.LLM.RetryDelay},
		{keyAIEnabled, kindBool, &s.Extraction.AIEnabled},
		{keySummaryRatio, kindFloat, &s.Extraction.SummaryRatio},
		{keyRequestDelay, kindMillis, &s.Extraction.RequestDelay},
		{keyMaxTableRows, kindInt, &s.Extraction.MaxTableRows},
		{keySourceBaseURL, kindString, &s.Source.BaseURL},
		{keySourceUserAgent, kindString, &s.Source.UserAgent},
		{keySourceTimeout, kindSeconds, &s.Source.Timeout},
		{keyDiscoveryBatchSize, kindInt, &s.Discovery.BatchSize},
		{keyDiscoveryMaxTokens, kindInt, &s.Discovery.MaxTokens},
		{keyValidationBatchSize, kindInt, &s.Discovery.ValidationBatchSize},
		{keyValidationPause, kindMillis, &s.Discovery.ValidationPause},
		{keyLogLevel, kindString, &s.LogLevel},
	}
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Keys that are absent or
// hold the wrong type keep their defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	for _, b := range bindings(&settings) {
		if _, exists := s.configStore.Get(b.key); !exists {
			continue
		}
		s.read(b)
	}
	return &settings, nil
}

// Save validates and persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := validateSettings(settings); err != nil {
		return err
	}
	for _, b := range bindings(settings) {
		if err := s.configStore.Set(b.key, stored(b)); err != nil {
			return fmt.Errorf("save %s: %w", b.key, err)
		}
	}
	return nil
}

// Set parses value for key and stores it if the resulting settings are
// valid. Durations are given in the unit named by the key.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var target *binding
	for _, b := range bindings(settings) {
		if b.key == key {
			target = &b
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: unknown setting %q (known: %s)", domain.ErrInvalidInput, key, strings.Join(s.Keys(), ", "))
	}

	if err := parseInto(*target, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	if err := validateSettings(settings); err != nil {
		return err
	}
	if err := s.configStore.Set(key, stored(*target)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists the recognised config keys in display order.
func (s *SettingsService) Keys() []string {
	var settings domain.AppSettings
	bs := bindings(&settings)
	keys := make([]string, len(bs))
	for i, b := range bs {
		keys[i] = b.key
	}
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config into typed fields.

func (s *SettingsService) read(b binding) {
	raw, _ := s.configStore.Get(b.key)
	switch b.kind {
	case kindString:
		if v, ok := raw.(string); ok {
			*b.ptr.(*string) = v
		}
	case kindInt:
		if isInteger(raw) {
			*b.ptr.(*int) = s.configStore.GetInt(b.key)
		}
	case kindFloat:
		if isInteger(raw) || isFloat(raw) {
			*b.ptr.(*float64) = s.configStore.GetFloat64(b.key)
		}
	case kindBool:
		if v, ok := raw.(bool); ok {
			*b.ptr.(*bool) = v
		}
	case kindSeconds:
		if isInteger(raw) {
			*b.ptr.(*time.Duration) = time.Duration(s.configStore.GetInt(b.key)) * time.Second
		}
	case kindMillis:
		if isInteger(raw) {
			*b.ptr.(*time.Duration) = time.Duration(s.configStore.GetInt(b.key)) * time.Millisecond
		}
	}
}

// stored returns the config file representation of a bound field.
func stored(b binding) any {
	switch b.kind {
	case kindString:
		return *b.ptr.(*string)
	case kindInt:
		return *b.ptr.(*int)
	case kindFloat:
		return *b.ptr.(*float64)
	case kindBool:
		return *b.ptr.(*bool)
	case kindSeconds:
		return int(b.ptr.(*time.Duration).Seconds())
	case kindMillis:
		return int(b.ptr.(*time.Duration).Milliseconds())
	}
	return nil
}

func parseInto(b binding, value string) error {
	switch b.kind {
	case kindString:
		*b.ptr.(*string) = value
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", value)
		}
		*b.ptr.(*int) = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("expected a number, got %q", value)
		}
		*b.ptr.(*float64) = f
	case kindBool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", value)
		}
		*b.ptr.(*bool) = v
	case kindSeconds, kindMillis:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("expected a non-negative integer, got %q", value)
		}
		unit := time.Second
		if b.kind == kindMillis {
			unit = time.Millisecond
		}
		*b.ptr.(*time.Duration) = time.Duration(n) * unit
	}
	return nil
}

func validateSettings(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	switch settings.LogLevel {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("%w: log.level must be one of debug, info, warn, error, got %q", domain.ErrInvalidInput, settings.LogLevel)
}

func isInteger(v any) bool {
	switch v.(type) {
	case int, int64:
		return true
	}
	return false
}

func isFloat(v any) bool {
	_, ok := v.(float64)
	return ok
}
