// Package filestore persists sessions for the command-line client in a single
// JSON file, the on-disk counterpart of browser local storage.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const fileMode = 0o600

// Store implements ports.SessionRepository over one JSON document mapping
// session key to its entries. Writes replace the file atomically.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a Store backed by path. The file is created on first save.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) Load(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	entries := doc[key]
	if entries == nil {
		entries = map[string]string{}
	}
	return entries, nil
}

func (s *Store) Save(_ context.Context, key string, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		// An unreadable file is replaced rather than blocking a fresh login.
		doc = map[string]map[string]string{}
	}
	if doc[key] == nil {
		doc[key] = map[string]string{}
	}
	for name, value := range entries {
		doc[key][name] = value
	}
	return s.write(doc)
}

func (s *Store) Remove(_ context.Context, key string, names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		doc = map[string]map[string]string{}
	}
	if entries, ok := doc[key]; ok {
		for _, name := range names {
			delete(entries, name)
		}
		if len(entries) == 0 {
			delete(doc, key)
		}
	}
	if len(doc) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}
	return s.write(doc)
}

func (s *Store) read() (map[string]map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	doc := map[string]map[string]string{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	return doc, nil
}

func (s *Store) write(doc map[string]map[string]string) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
