package oshan

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Credentials are the stored sign-in state for a client.
type Credentials struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// TokenStore persists credentials between client runs.
type TokenStore interface {
	Load() (*Credentials, error)
	Save(c *Credentials) error
	// Clear removes stored credentials. Clearing an empty store is not an
	// error.
	Clear() error
}

// FileTokenStore keeps credentials in a JSON file.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a FileTokenStore at the given path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// DefaultTokenPath returns the per-user credentials path.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(dir, "oshan", "credentials.json"), nil
}

// Load reads stored credentials. It returns (nil, nil) when none are stored.
func (s *FileTokenStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	if c.Token == "" {
		return nil, nil
	}
	return &c, nil
}

// Save writes credentials, creating parent directories as needed.
func (s *FileTokenStore) Save(c *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating credentials dir: %w", err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// Clear removes the credentials file. Clearing twice is fine.
func (s *FileTokenStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	return nil
}

// memoryTokenStore holds credentials in memory only.
type memoryTokenStore struct {
	creds *Credentials
}

func (s *memoryTokenStore) Load() (*Credentials, error) { return s.creds, nil }
func (s *memoryTokenStore) Save(c *Credentials) error   { s.creds = c; return nil }
func (s *memoryTokenStore) Clear() error                { s.creds = nil; return nil }

// NewMemoryTokenStore returns a TokenStore that forgets credentials when the
// process exits.
func NewMemoryTokenStore() TokenStore {
	return &memoryTokenStore{}
}
