// Package project tracks the single project folder open in the editor.
package project

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"editorshell/logging"
)

// State is the currently open project. Path and Name are both set or both nil.
type State struct {
	Path *string `json:"path"`
	Name *string `json:"name"`
}

func (s State) IsOpen() bool {
	return s.Path != nil
}

// Persister remembers the last opened project path between runs.
// Every method reports failures, but the Manager treats persistence as best effort and
// never lets an error change the in-memory result.
type Persister interface {
	SaveLastPath(path string) error
	ClearLastPath() error
	LastPath() (string, bool, error)
}

// Manager owns the project slot. The lock is held only while copying the state in or out.
type Manager struct {
	mu    sync.Mutex
	state State

	persister Persister
	exists    func(path string) bool
	logger    *zap.Logger
}

func NewManager(persister Persister) *Manager {
	return &Manager{
		persister: persister,
		exists:    pathExists,
		logger:    logging.Named("project"),
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (m *Manager) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Open installs folder as the current project and remembers it for the next run.
func (m *Manager) Open(folder string) State {
	st := newState(folder)

	if err := m.persister.SaveLastPath(folder); err != nil {
		m.logger.Warn("failed to persist last project", zap.String("path", folder), zap.Error(err))
	}

	m.set(st)
	m.logger.Info("project opened", zap.String("path", folder), zap.String("name", *st.Name))
	return st
}

// LoadLast restores the remembered project if it still exists on disk.
// Otherwise it reports false and leaves the current state alone.
func (m *Manager) LoadLast() (State, bool) {
	path, ok, err := m.persister.LastPath()
	if err != nil {
		m.logger.Warn("failed to read last project", zap.Error(err))
		return State{}, false
	}
	if !ok {
		return State{}, false
	}
	if !m.exists(path) {
		m.logger.Info("last project no longer exists", zap.String("path", path))
		return State{}, false
	}

	st := newState(path)
	m.set(st)
	m.logger.Info("last project restored", zap.String("path", path))
	return st, true
}

// Close forgets the remembered project and clears the current one.
func (m *Manager) Close() {
	if err := m.persister.ClearLastPath(); err != nil {
		m.logger.Warn("failed to clear last project", zap.Error(err))
	}

	m.set(State{})
	m.logger.Info("project closed")
}

func (m *Manager) set(st State) {
	m.mu.Lock()
	m.state = st
	m.mu.Unlock()
}

func newState(path string) State {
	name := displayName(path)
	return State{Path: &path, Name: &name}
}

// displayName is the final path segment, or the whole path when there is none.
func displayName(path string) string {
	if filepath.Base(path) == ".." {
		return path
	}
	base := filepath.Base(filepath.Clean(path))
	if base == "." || base == ".." || base == string(filepath.Separator) || base == "" || base == filepath.VolumeName(path) {
		return path
	}
	return base
}
