package services

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
	"github.com/custodia-labs/lexica-cli/internal/prompts"
)

// errPromptMissing is returned for a name with no stored or embedded template.
var errPromptMissing = errors.New("no such prompt")

// promptLoader resolves templates from an optional store, falling back to
// the embedded defaults.
type promptLoader struct {
	store driven.PromptStore
}

func newPromptLoader(store driven.PromptStore) *promptLoader {
	return &promptLoader{store: store}
}

func (l *promptLoader) load(name string) (string, error) {
	if l.store != nil {
		if tmpl, err := l.store.Load(name); err == nil && tmpl != "" {
			return tmpl, nil
		}
	}
	if tmpl, ok := prompts.Default(name); ok {
		return tmpl, nil
	}
	return "", fmt.Errorf("prompt %q: %w", name, errPromptMissing)
}

// format loads a template and applies args to it. Templates without
// arguments are returned as-is.
func (l *promptLoader) format(name string, args ...any) (string, error) {
	tmpl, err := l.load(name)
	if err != nil {
		return "", err
	}
	if len(args) == 0 {
		return tmpl, nil
	}
	return fmt.Sprintf(tmpl, args...), nil
}
