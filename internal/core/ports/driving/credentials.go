package driving

import "context"

// CredentialService manages the LLM API key.
type CredentialService interface {
	// SetAPIKey stores the key.
	SetAPIKey(key string) error

	// ClearAPIKey removes the stored key.
	ClearAPIKey() error

	// HasAPIKey reports whether a key is available.
	HasAPIKey() (bool, error)

	// ValidateAPIKey checks a key against the API with a minimal request.
	// An empty key validates the stored one.
	ValidateAPIKey(ctx context.Context, key string) error
}
