package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexica-cli/internal/adapters/driven/secrets/env"
	"github.com/custodia-labs/lexica-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

// recordingValidator implements KeyValidator.
type recordingValidator struct {
	keys []string
	err  error
}

func (v *recordingValidator) ValidateKey(_ context.Context, key string) error {
	v.keys = append(v.keys, key)
	return v.err
}

func TestCredentialService_SetHasClear(t *testing.T) {
	store := memory.NewSecretStore(nil)
	service := NewCredentialService(store, &recordingValidator{})

	has, err := service.HasAPIKey()
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, service.SetAPIKey("  sk-ant-123 \n"))
	stored, found, err := store.Get(domain.APIKeyName)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "sk-ant-123", stored)

	has, err = service.HasAPIKey()
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, service.ClearAPIKey())
	has, err = service.HasAPIKey()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCredentialService_SetEmpty(t *testing.T) {
	service := NewCredentialService(memory.NewSecretStore(nil), nil)
	assert.ErrorIs(t, service.SetAPIKey("   "), domain.ErrInvalidInput)
}

func TestCredentialService_SetReadOnly(t *testing.T) {
	service := NewCredentialService(env.NewStore(env.DefaultMapping), nil)
	assert.ErrorIs(t, service.SetAPIKey("sk"), domain.ErrReadOnly)
}

func TestCredentialService_ValidateAPIKey(t *testing.T) {
	t.Run("explicit key", func(t *testing.T) {
		validator := &recordingValidator{}
		service := NewCredentialService(memory.NewSecretStore(map[string]string{domain.APIKeyName: "stored"}), validator)

		require.NoError(t, service.ValidateAPIKey(context.Background(), "given"))
		assert.Equal(t, []string{"given"}, validator.keys)
	})

	t.Run("stored key", func(t *testing.T) {
		validator := &recordingValidator{}
		service := NewCredentialService(memory.NewSecretStore(map[string]string{domain.APIKeyName: "stored"}), validator)

		require.NoError(t, service.ValidateAPIKey(context.Background(), ""))
		assert.Equal(t, []string{"stored"}, validator.keys)
	})

	t.Run("no key", func(t *testing.T) {
		validator := &recordingValidator{}
		service := NewCredentialService(memory.NewSecretStore(nil), validator)

		err := service.ValidateAPIKey(context.Background(), "")

		assert.ErrorIs(t, err, domain.ErrNoCredential)
		assert.Empty(t, validator.keys)
	})

	t.Run("rejected", func(t *testing.T) {
		rejected := &domain.AIError{Kind: domain.AIInvalidCredential, StatusCode: 401}
		service := NewCredentialService(memory.NewSecretStore(nil), &recordingValidator{err: rejected})

		err := service.ValidateAPIKey(context.Background(), "bad")

		assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	})
}

func TestCredentialService_ValidateWithCompletionService(t *testing.T) {
	client := &mockMessagesClient{script: []scriptedReply{statusReply(429)}}
	completion, _ := newTestCompletion(client)
	service := NewCredentialService(memory.NewSecretStore(nil), completion)

	require.NoError(t, service.ValidateAPIKey(context.Background(), "sk-rate-limited"))
	assert.Equal(t, []string{"sk-rate-limited"}, client.keys)
	assert.Equal(t, "Say 'OK'", client.requests[0].Prompt)
	assert.Equal(t, 10, client.requests[0].MaxTokens)
}

func TestCredentialService_StoreErrors(t *testing.T) {
	service := NewCredentialService(failingSecretStore{}, &recordingValidator{})

	_, err := service.HasAPIKey()
	assert.Error(t, err)
	assert.Error(t, service.ClearAPIKey())
	assert.ErrorIs(t, service.ValidateAPIKey(context.Background(), ""), domain.ErrNoCredential)
}

// failingSecretStore fails every operation.
type failingSecretStore struct{}

var errStoreDown = errors.New("keyring unavailable")

func (failingSecretStore) Get(string) (string, bool, error) { return "", false, errStoreDown }
func (failingSecretStore) Set(string, string) error         { return errStoreDown }
func (failingSecretStore) Delete(string) error              { return errStoreDown }
