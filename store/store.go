// Package store provides a small key/value settings store persisted as one JSON document.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"editorshell/logging"
)

// Store is a JSON-file backed key/value store. Values are kept in memory and only
// written to disk by Save.
type Store struct {
	path string

	mu     sync.Mutex
	values map[string]json.RawMessage
	loaded bool

	logger *zap.Logger
}

// New returns a store backed by the file at path. The file is read lazily on first use.
func New(path string) *Store {
	return &Store{
		path:   path,
		logger: logging.Named("store"),
	}
}

func (s *Store) Path() string {
	return s.path
}

// load must be called with s.mu held.
func (s *Store) load() error {
	if s.loaded {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("no settings file, starting empty", zap.String("path", s.path))
			s.values = make(map[string]json.RawMessage)
			s.loaded = true
			return nil
		}
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	values := make(map[string]json.RawMessage)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("failed to parse settings file %s: %w", s.path, err)
		}
	}
	// a file holding just `null` decodes to a nil map
	if values == nil {
		values = make(map[string]json.RawMessage)
	}

	s.values = values
	s.loaded = true
	return nil
}

// Get returns the raw JSON value stored under key.
func (s *Store) Get(key string) (json.RawMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, false, err
	}
	v, ok := s.values[key]
	return v, ok, nil
}

// GetString returns the value under key when it is a JSON string.
// A value of any other type reads as absent.
func (s *Store) GetString(key string) (string, bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return "", false, err
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return "", false, nil
	}
	return str, true, nil
}

func (s *Store) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	s.values[key] = data
	return nil
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	delete(s.values, key)
	return nil
}

// Save writes the whole document to disk, creating the parent directory if needed.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	s.logger.Debug("settings saved", zap.String("path", s.path), zap.Int("keys", len(s.values)))
	return nil
}
