package kv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Compile-time assertion that FileStore satisfies the Store interface.
var _ Store = (*FileStore)(nil)

// FileStore keeps each slot as <dir>/<slot>.json. It is the default store:
// one JSON file per slot keeps the on-disk layout inspectable with nothing
// more than a text editor. Writes go through a temp file and rename so a
// crash never leaves a half-written slot behind.
type FileStore struct {
	dir string

	// mu serialises writers within this process. Cross-process writers are
	// last-writer-wins.
	mu sync.Mutex
}

// NewFileStore creates the directory if needed and returns a [FileStore]
// rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("kv: file store directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("kv: create store directory %q: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Load implements [Store.Load].
func (s *FileStore) Load(ctx context.Context, slot string) ([]byte, error) {
	path, err := s.slotPath(slot)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv: read slot %q: %w", slot, err)
	}
	return data, nil
}

// Save implements [Store.Save] with a temp-file-and-rename write.
func (s *FileStore) Save(ctx context.Context, slot string, data []byte) error {
	path, err := s.slotPath(slot)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("kv: create temp file for slot %q: %w", slot, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("kv: write slot %q: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("kv: close temp file for slot %q: %w", slot, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("kv: replace slot %q: %w", slot, err)
	}
	return nil
}

// Delete implements [Store.Delete].
func (s *FileStore) Delete(ctx context.Context, slot string) error {
	path, err := s.slotPath(slot)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("kv: delete slot %q: %w", slot, err)
	}
	return nil
}

// Close implements [Store.Close]. It is a no-op for FileStore.
func (s *FileStore) Close() error { return nil }

// slotPath validates the slot name and returns its file path. Slot names are
// restricted to a filename-safe alphabet so a malicious name cannot escape
// the store directory.
func (s *FileStore) slotPath(slot string) (string, error) {
	if slot == "" {
		return "", fmt.Errorf("kv: slot name must not be empty")
	}
	for _, r := range slot {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return "", fmt.Errorf("kv: slot name %q contains invalid character %q", slot, r)
		}
	}
	if strings.HasPrefix(slot, "-") {
		return "", fmt.Errorf("kv: slot name %q must not start with a dash", slot)
	}
	return filepath.Join(s.dir, slot+".json"), nil
}
