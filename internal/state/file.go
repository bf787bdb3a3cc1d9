package state

import (
	"context"
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// FileStore persists the checkpoint as a small JSON file.
type FileStore struct {
	path string
}

// NewFileStore constructs a store over the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path reports where the checkpoint file lives.
func (s *FileStore) Path() string { return s.path }

// Load reads the checkpoint file. A missing file is not an error; it yields a
// zero cursor so resolution falls through to configuration.
func (s *FileStore) Load(_ context.Context) (Cursor, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Cursor{}, nil
		}
		return Cursor{}, fmt.Errorf("read state file %s: %w", s.path, err)
	}
	var cursor Cursor
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return Cursor{}, fmt.Errorf("decode state file %s: %w", s.path, err)
	}
	return cursor, nil
}

// Persist writes the checkpoint file, replacing any previous content.
func (s *FileStore) Persist(_ context.Context, cursor Cursor) error {
	encoded, err := json.Marshal(cursor)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(s.path, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("write state file %s: %w", s.path, err)
	}
	return nil
}
