package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driving"
)

// Ensure CredentialService implements the interface.
var _ driving.CredentialService = (*CredentialService)(nil)

// KeyValidator checks an API key against the LLM API.
// CompletionService implements it.
type KeyValidator interface {
	ValidateKey(ctx context.Context, apiKey string) error
}

// CredentialService manages the LLM API key.
type CredentialService struct {
	secrets   driven.SecretStore
	validator KeyValidator
}

// NewCredentialService creates a new credential service.
func NewCredentialService(secrets driven.SecretStore, validator KeyValidator) *CredentialService {
	return &CredentialService{
		secrets:   secrets,
		validator: validator,
	}
}

// SetAPIKey stores the key.
func (s *CredentialService) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: empty API key", domain.ErrInvalidInput)
	}
	if err := s.secrets.Set(domain.APIKeyName, key); err != nil {
		return fmt.Errorf("store API key: %w", err)
	}
	return nil
}

// ClearAPIKey removes the stored key.
func (s *CredentialService) ClearAPIKey() error {
	if err := s.secrets.Delete(domain.APIKeyName); err != nil {
		return fmt.Errorf("clear API key: %w", err)
	}
	return nil
}

// HasAPIKey reports whether a non-empty key is available.
func (s *CredentialService) HasAPIKey() (bool, error) {
	key, found, err := s.secrets.Get(domain.APIKeyName)
	if err != nil {
		return false, err
	}
	return found && key != "", nil
}

// ValidateAPIKey checks key, or the stored key when key is empty.
func (s *CredentialService) ValidateAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		stored, found, err := s.secrets.Get(domain.APIKeyName)
		if err != nil {
			return &domain.AIError{Kind: domain.AINoCredential, Err: err}
		}
		if !found || stored == "" {
			return &domain.AIError{Kind: domain.AINoCredential, Err: domain.ErrNoCredential}
		}
		key = stored
	}
	if s.validator == nil {
		return fmt.Errorf("validate API key: no validator configured")
	}
	return s.validator.ValidateKey(ctx, key)
}
