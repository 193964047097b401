package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
	"github.com/custodia-labs/lexica-cli/internal/logger"
	"github.com/custodia-labs/lexica-cli/internal/prompts"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk, falling
// back to the embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
	log       logger.Logger
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to <DefaultDir>/prompts.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string, log logger.Logger) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config directory: %w", err)
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
		log:       logger.OrNop(log),
	}, nil
}

// Load returns the prompt template for the given name.
// Edited files win over embedded defaults; an unreadable or blank file
// falls back to the default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		def, ok := prompts.Default(name)
		if !ok {
			if err == nil {
				err = errors.New("empty prompt file")
			}
			return "", fmt.Errorf("load prompt %q: %w", name, err)
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("using default prompt", logger.String("name", name), logger.Error(err))
		}
		return def, nil
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Watch reloads the cache whenever a file in the prompt directory changes.
// It blocks until ctx is done. The ready channel, when non-nil, is closed
// once the watcher is registered.
func (s *PromptStore) Watch(ctx context.Context, ready chan<- struct{}) error {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return s.initErr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.promptDir); err != nil {
		return fmt.Errorf("watch %s: %w", s.promptDir, err)
	}
	if ready != nil {
		close(ready)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".txt") {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				s.log.Info("prompt changed, reloading", logger.String("file", filepath.Base(event.Name)))
				s.Reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("prompt watcher error", logger.Error(err))
		}
	}
}

// initialise creates the prompt directory and writes the defaults that
// do not exist yet. Called once via sync.Once.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		s.log.Warn("prompt directory unavailable, using defaults", logger.Error(s.initErr))
		return
	}

	for _, name := range prompts.Names() {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		content, _ := prompts.Default(name)
		if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
			s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
			return
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	content := `# Lexica Prompts

This directory holds the prompts lexica sends to the language model.

## Files

- ` + "`summary_system.txt`, `summary.txt`" + ` - article summary
- ` + "`classify.txt`" + ` - article type classification
- ` + "`key_facts.txt`, `dates.txt`, `locations.txt`, `topics.txt`" + ` - structured enrichment
- ` + "`discovery_system.txt`, `discovery_estimate.txt`, `discovery_continue.txt`" + ` - article discovery

## Customisation

Edit any file to change the model's instructions. Changes apply to the next
command, or immediately while ` + "`lexica mcp serve`" + ` is running.
Delete a file to restore its default.

## Format Placeholders

Prompts use Go fmt placeholders (` + "`%s`" + ` for text, ` + "`%d`" + ` for numbers).
Keep the same placeholders in the same order when editing.
`
	return os.WriteFile(path, []byte(content), 0600)
}
