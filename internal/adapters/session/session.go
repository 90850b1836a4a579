// Package session persists the authenticated session across process
// restarts. It is the only client state that survives a restart; every
// other cache is rebuilt fresh by an explicit refresh.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bloomwell/bloom/internal/adapters/remote"
)

// slotName is the single named storage slot holding the session.
const slotName = "auth-storage.json"

// File permissions: the slot holds a bearer token.
const (
	dirPerm  = 0o700
	filePerm = 0o600
)

// ErrNotFound signals that no session has been persisted yet.
var ErrNotFound = errors.New("no persisted session")

// FileStore reads and writes the session slot as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns the per-user location of the session slot.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "bloom", slotName), nil
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the persisted session. Returns ErrNotFound when the slot is
// empty.
func (s *FileStore) Load() (remote.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return remote.Session{}, ErrNotFound
		}
		return remote.Session{}, fmt.Errorf("read session slot: %w", err)
	}

	var sess remote.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return remote.Session{}, fmt.Errorf("decode session slot: %w", err)
	}
	return sess, nil
}

// Save writes the session atomically via a temp file rename.
func (s *FileStore) Save(sess remote.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return fmt.Errorf("write session slot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit session slot: %w", err)
	}
	return nil
}

// Clear empties the slot. Clearing an empty slot is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session slot: %w", err)
	}
	return nil
}
