package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pruqanda/pruqanda/core"
)

// Artifact file names under the store directory.
const (
	RawMessagesFile      = "messages_raw.json"
	EmbeddedMessagesFile = "messages_embedded.json"
	UserProfilesFile     = "user_profiles.json"
)

// Store persists pipeline artifacts as human-readable JSON arrays under a
// single output directory. Writes go through a temp file and rename, so a
// crash mid-write never truncates the previous snapshot.
//
// A Store has a single writer per artifact and no in-process concurrent
// readers, so it performs no locking itself.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the absolute location of a named artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// SaveMessages overwrites the raw message snapshot.
func (s *Store) SaveMessages(messages []core.Message) error {
	return writeJSON(s.Path(RawMessagesFile), messages)
}

// LoadMessages reads the raw message snapshot.
func (s *Store) LoadMessages() ([]core.Message, error) {
	var messages []core.Message
	if err := readJSON(s.Path(RawMessagesFile), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SaveEmbedded overwrites the embedded message snapshot. The embedder calls
// this both for periodic checkpoints and for the final flush.
func (s *Store) SaveEmbedded(records []core.EmbeddedMessage) error {
	return writeJSON(s.Path(EmbeddedMessagesFile), records)
}

// LoadEmbedded reads the embedded message snapshot.
func (s *Store) LoadEmbedded() ([]core.EmbeddedMessage, error) {
	var records []core.EmbeddedMessage
	if err := readJSON(s.Path(EmbeddedMessagesFile), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SaveProfiles overwrites the user profile snapshot.
func (s *Store) SaveProfiles(profiles []core.UserProfile) error {
	return writeJSON(s.Path(UserProfilesFile), profiles)
}

// LoadProfiles reads the user profile snapshot.
func (s *Store) LoadProfiles() ([]core.UserProfile, error) {
	var profiles []core.UserProfile
	if err := readJSON(s.Path(UserProfilesFile), &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
