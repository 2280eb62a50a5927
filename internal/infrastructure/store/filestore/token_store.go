// Package filestore persists the bearer token in a single file, the agent's
// equivalent of a durable local-storage slot.
package filestore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type TokenStore struct {
	path string
}

func New(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Load returns the persisted token, or empty when none exists.
func (s *TokenStore) Load(context.Context) (string, error) {
	buf, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(buf)), nil
}

// Save writes the token, creating the parent directory if needed.
func (s *TokenStore) Save(_ context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token), 0o600)
}

// Clear removes the persisted token; absence is not an error.
func (s *TokenStore) Clear(context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
