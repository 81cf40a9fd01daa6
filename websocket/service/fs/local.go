package fs

import (
	"os"
	"path/filepath"

	"editorshell/logging"
	ws "editorshell/websocket"
)

type LocalFileSystem struct{}

// Stat implements FileSystem.
func (l *LocalFileSystem) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// ReadDir implements FileSystem.
func (l *LocalFileSystem) ReadDir(path string) ([]os.FileInfo, error) {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	infos := make([]os.FileInfo, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		info, err := dirEntry.Info()
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ReadFile implements FileSystem.
func (l *LocalFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile implements FileSystem.
func (l *LocalFileSystem) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

// MkdirAll implements FileSystem.
func (l *LocalFileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

// Join implements FileSystem.
func (l *LocalFileSystem) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// Dir implements FileSystem.
func (l *LocalFileSystem) Dir(path string) string {
	return filepath.Dir(path)
}

func NewLocalService() ws.Service {
	logger := logging.Named("fs")
	return &FSService{
		Access: NewAccess(&LocalFileSystem{}, logger),
		logger: logger,
	}
}
