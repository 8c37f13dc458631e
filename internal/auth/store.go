// Package auth owns the access/refresh token pair for a profile: loading and
// persisting the token file, deciding when the access token must be refreshed
// before an outgoing call, and performing login, refresh and logout against
// the server's auth endpoints.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidwall/sjson"
)

// TokenPair is the persisted pair of bearer credentials for one profile.
// Both fields are JWT encoded; an absent field means "not logged in" for
// that token kind. A partial or empty file is valid.
type TokenPair struct {
	// AccessToken is the short-lived credential sent with every API call.
	AccessToken string `json:"access_token,omitempty"`

	// RefreshToken is the longer-lived credential used solely to obtain new
	// access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Store reads and writes the token file of one profile. Every command
// invocation reloads from disk; no token state is cached in memory across
// invocations. Concurrent invocations against the same profile race on this
// file: no locking is done and only one client process is assumed to touch a
// given profile at a time.
type Store struct {
	path string
}

// NewStore creates a store for the token file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the token file location.
func (s *Store) Path() string { return s.path }

// Load reads the persisted pair. A missing file yields an empty pair, which
// callers treat as "not logged in".
func (s *Store) Load() (*TokenPair, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &TokenPair{}, nil
		}
		return nil, fmt.Errorf("failed to read token file %s: %w", s.path, err)
	}

	var pair TokenPair
	if err = json.Unmarshal(data, &pair); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", s.path, err)
	}
	return &pair, nil
}

// Save replaces the token file with pair.
func (s *Store) Save(pair *TokenPair) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err = json.NewEncoder(f).Encode(pair); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// SetAccessToken rewrites only the access_token key of the token file in
// place, leaving the refresh token and any other keys untouched. This is the
// refresh path: refresh replaces the access token and reuses the refresh
// token.
func (s *Store) SetAccessToken(token string) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read token file %s: %w", s.path, err)
		}
		data = []byte("{}")
	}

	updated, err := sjson.SetBytes(data, "access_token", token)
	if err != nil {
		return fmt.Errorf("failed to update token file: %w", err)
	}
	if len(updated) == 0 || updated[len(updated)-1] != '\n' {
		updated = append(updated, '\n')
	}

	if err = os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err = os.WriteFile(s.path, updated, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Clear removes both tokens, leaving an empty JSON object behind.
func (s *Store) Clear() error {
	return s.Save(&TokenPair{})
}
