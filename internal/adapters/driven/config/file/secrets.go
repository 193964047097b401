package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
)

// Ensure SecretStore implements the interface.
var _ driven.SecretStore = (*SecretStore)(nil)

// SecretStore keeps credentials in a TOML file readable only by its owner.
type SecretStore struct {
	mu       sync.RWMutex
	filePath string
	secrets  map[string]string
}

// NewSecretStore opens <configDir>/secrets.toml. If configDir is empty,
// DefaultDir is used.
func NewSecretStore(configDir string) (*SecretStore, error) {
	dir, err := resolveDir(configDir)
	if err != nil {
		return nil, err
	}

	s := &SecretStore{
		filePath: filepath.Join(dir, "secrets.toml"),
		secrets:  make(map[string]string),
	}

	data, err := os.ReadFile(s.filePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, err
	}
	if err := toml.Unmarshal(data, &s.secrets); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.filePath, err)
	}
	if s.secrets == nil {
		s.secrets = make(map[string]string)
	}
	return s, nil
}

// Get returns the secret stored under key.
func (s *SecretStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.secrets[key]
	return v, ok, nil
}

// Set stores a secret and rewrites the file.
func (s *SecretStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.secrets[key] = value
	return s.save()
}

// Delete removes a secret and rewrites the file.
func (s *SecretStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.secrets[key]; !ok {
		return nil
	}
	delete(s.secrets, key)
	return s.save()
}

// Path returns the secrets file path.
func (s *SecretStore) Path() string {
	return s.filePath
}

// save writes the secrets file (caller must hold lock). The file is written
// to a temporary sibling and renamed so a crash never leaves it truncated.
func (s *SecretStore) save() error {
	data, err := toml.Marshal(s.secrets)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".secrets-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.filePath)
}
