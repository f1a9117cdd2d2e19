// Package cache persists the client-local mirror of confirmed notes. The
// whole collection is read and rewritten on every append, matching the
// display cache on the capture side.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/voxnote/backend/services/notes/entity"
)

type FileCache struct {
	mu   sync.Mutex
	path string
}

func NewFileCache(path string) (*FileCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &FileCache{path: path}, nil
}

// Load reads the entire cached collection. A missing file is an empty cache.
func (c *FileCache) Load() ([]entity.Note, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loadLocked()
}

// Append rewrites the whole collection with the new note appended,
// most-recent-last.
func (c *FileCache) Append(note entity.Note) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	notes, err := c.loadLocked()
	if err != nil {
		return err
	}

	notes = append(notes, note)
	return c.saveLocked(notes)
}

func (c *FileCache) loadLocked() ([]entity.Note, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	var notes []entity.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("decode cache file: %w", err)
	}

	return notes, nil
}

func (c *FileCache) saveLocked(notes []entity.Note) error {
	tmp, err := os.CreateTemp(filepath.Dir(c.path), "notes-*.json")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(notes); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode cache: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp cache: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace cache file: %w", err)
	}

	return nil
}
