// Package env provides a read-only SecretStore backed by environment
// variables and a Chain that layers several stores.
package env

import (
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
)

// Ensure the stores implement the interface.
var (
	_ driven.SecretStore = (*Store)(nil)
	_ driven.SecretStore = (*Chain)(nil)
)

// DefaultMapping maps secret keys to environment variables.
var DefaultMapping = map[string]string{
	domain.APIKeyName: "ANTHROPIC_API_KEY",
}

// Store reads secrets from the environment. It rejects writes.
type Store struct {
	mapping map[string]string
	lookup  func(string) (string, bool)
}

// NewStore creates an environment store. A nil mapping uses DefaultMapping.
func NewStore(mapping map[string]string) *Store {
	if mapping == nil {
		mapping = DefaultMapping
	}
	return &Store{mapping: mapping, lookup: os.LookupEnv}
}

// Get returns the value of the variable mapped to key. Unset and empty
// variables are not found.
func (s *Store) Get(key string) (string, bool, error) {
	name, ok := s.mapping[key]
	if !ok {
		return "", false, nil
	}
	v, ok := s.lookup(name)
	if !ok || v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// Set always fails with domain.ErrReadOnly.
func (s *Store) Set(key, _ string) error {
	return fmt.Errorf("set %s: %w", key, domain.ErrReadOnly)
}

// Delete always fails with domain.ErrReadOnly.
func (s *Store) Delete(key string) error {
	return fmt.Errorf("delete %s: %w", key, domain.ErrReadOnly)
}

// Chain consults stores in order. Get returns the first hit; Set and
// Delete go to the first store that accepts writes.
type Chain struct {
	stores []driven.SecretStore
}

// NewChain creates a chain over stores, highest precedence first.
func NewChain(stores ...driven.SecretStore) *Chain {
	return &Chain{stores: stores}
}

// Get returns the first value found. A failing store does not hide a hit
// from a later one; its error is returned only when nothing is found.
func (c *Chain) Get(key string) (string, bool, error) {
	var errs []error
	for _, s := range c.stores {
		v, found, err := s.Get(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if found {
			return v, true, nil
		}
	}
	return "", false, errors.Join(errs...)
}

// Set writes to the first writable store.
func (c *Chain) Set(key, value string) error {
	for _, s := range c.stores {
		err := s.Set(key, value)
		if errors.Is(err, domain.ErrReadOnly) {
			continue
		}
		return err
	}
	return fmt.Errorf("set %s: %w", key, domain.ErrReadOnly)
}

// Delete removes key from the first writable store.
func (c *Chain) Delete(key string) error {
	for _, s := range c.stores {
		err := s.Delete(key)
		if errors.Is(err, domain.ErrReadOnly) {
			continue
		}
		return err
	}
	return fmt.Errorf("delete %s: %w", key, domain.ErrReadOnly)
}
