// Package storage keeps the terminal client's local state: the saved
// backend session, interactive prompts and the background identity
// refresh.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// sessionFile is the file name used under the user's config directory.
const sessionFile = "session.json"

// SessionStore saves and restores the backend session between runs.
type SessionStore struct {
	path string
	mu   sync.Mutex
}

// NewSessionStore returns a store backed by path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// DefaultPath is session.json under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "flightdesk", sessionFile), nil
}

// Path returns the file the store reads and writes.
func (s *SessionStore) Path() string { return s.path }

// Load returns the cookies saved for backendURL. A missing file, or one
// saved for another backend, yields no cookies and no error.
func (s *SessionStore) Load(backendURL string) ([]*http.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var f SessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", s.path, err)
	}
	if f.Backend != backendURL {
		return nil, nil
	}
	cookies := make([]*http.Cookie, 0, len(f.Cookies))
	for _, c := range f.Cookies {
		if c.Name == "" || c.Value == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return cookies, nil
}

// Save writes the cookies for backendURL, replacing any earlier session.
// The file is readable by the owner only and is replaced atomically.
func (s *SessionStore) Save(backendURL string, cookies []*http.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := SessionFile{Backend: backendURL, SavedAt: time.Now().UTC()}
	for _, c := range cookies {
		if c.Value == "" {
			continue
		}
		f.Cookies = append(f.Cookies, Cookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), sessionFile+".*")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

// Clear forgets the saved session.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
