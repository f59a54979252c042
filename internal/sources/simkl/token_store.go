package simkl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Token is the persisted Simkl credential.
type Token struct {
	AccessToken string `json:"access_token"`
}

// TokenStore abstracts credential persistence so tests can swap the file
// implementation out.
type TokenStore interface {
	Load() (Token, error)
	Save(Token) error
	Exists() bool
}

// FileTokenStore persists the token as JSON on disk.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore builds a store writing to the given path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load reads the stored token. A missing file yields a zero token, not an error.
func (s *FileTokenStore) Load() (Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Token{}, nil
		}
		return Token{}, fmt.Errorf("read token file: %w", err)
	}
	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return Token{}, fmt.Errorf("parse token file: %w", err)
	}
	return token, nil
}

// Save writes the token with owner-only permissions.
func (s *FileTokenStore) Save(token Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Exists reports whether a token file is present.
func (s *FileTokenStore) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}
