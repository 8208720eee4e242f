// Package tokenstore persists the bearer token between process runs.
package tokenstore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"phonebook/internal/errs"
)

// File stores a single token string under the user's config directory.
type File struct {
	dir string
}

// NewFile returns a store rooted at $XDG_CONFIG_HOME/phonebook (or
// ~/.config/phonebook when XDG_CONFIG_HOME is unset).
func NewFile() *File {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return &File{dir: filepath.Join(v, "phonebook")}
	}
	home, _ := os.UserHomeDir()
	return &File{dir: filepath.Join(home, ".config", "phonebook")}
}

func (f *File) path() string { return filepath.Join(f.dir, "token") }

// Load returns the persisted token, or errs.ErrNoToken when none is stored.
func (f *File) Load() (string, error) {
	b, err := os.ReadFile(f.path())
	if errors.Is(err, fs.ErrNotExist) {
		return "", errs.ErrNoToken
	}
	if err != nil {
		return "", err
	}
	tok := strings.TrimSpace(string(b))
	if tok == "" {
		return "", errs.ErrNoToken
	}
	return tok, nil
}

// Save persists the token, replacing any previous value.
func (f *File) Save(token string) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path(), []byte(token+"\n"), 0o600)
}

// Clear removes the persisted token. Clearing an absent token is not an error.
func (f *File) Clear() error {
	err := os.Remove(f.path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
