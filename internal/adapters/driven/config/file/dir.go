package file

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the config directory when set.
const HomeEnv = "LEXICA_HOME"

// DefaultDir returns $LEXICA_HOME, or ~/.lexica when unset.
func DefaultDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".lexica"), nil
}

// resolveDir applies the default and creates the directory.
func resolveDir(dir string) (string, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}
