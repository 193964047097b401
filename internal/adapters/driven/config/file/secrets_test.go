package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

func TestSecretStore_SetGetDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSecretStore(dir)
	require.NoError(t, err)

	_, found, err := store.Get(domain.APIKeyName)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(domain.APIKeyName, "sk-ant-test"))

	value, found, err := store.Get(domain.APIKeyName)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "sk-ant-test", value)

	require.NoError(t, store.Delete(domain.APIKeyName))
	require.NoError(t, store.Delete(domain.APIKeyName))

	_, found, err = store.Get(domain.APIKeyName)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSecretStore_Persists(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSecretStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(domain.APIKeyName, "sk-ant-persisted"))

	reopened, err := NewSecretStore(dir)
	require.NoError(t, err)

	value, found, err := reopened.Get(domain.APIKeyName)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "sk-ant-persisted", value)
}

func TestSecretStore_OwnerOnlyPermissions(t *testing.T) {
	store, err := NewSecretStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set(domain.APIKeyName, "sk"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestSecretStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets.toml"), []byte("= broken"), 0600))

	_, err := NewSecretStore(dir)

	assert.Error(t, err)
}
