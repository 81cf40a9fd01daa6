package fs

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/pkg/sftp"

	"editorshell/logging"
	ws "editorshell/websocket"
)

// SFTPFileSystem serves a project that lives on a remote host. Remote paths are POSIX.
type SFTPFileSystem struct {
	*sftp.Client
}

func NewSFTPFileSystem(client *sftp.Client) *SFTPFileSystem {
	return &SFTPFileSystem{Client: client}
}

// Stat implements FileSystem.
func (s *SFTPFileSystem) Stat(p string) (os.FileInfo, error) {
	return s.Client.Stat(p)
}

// ReadDir implements FileSystem.
func (s *SFTPFileSystem) ReadDir(p string) ([]os.FileInfo, error) {
	return s.Client.ReadDir(p)
}

// ReadFile implements FileSystem.
func (s *SFTPFileSystem) ReadFile(p string) ([]byte, error) {
	f, err := s.Client.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote file: %w", err)
	}
	return data, nil
}

// WriteFile implements FileSystem.
func (s *SFTPFileSystem) WriteFile(p string, data []byte) error {
	f, err := s.Client.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write remote file: %w", err)
	}
	return f.Close()
}

// MkdirAll implements FileSystem.
func (s *SFTPFileSystem) MkdirAll(p string) error {
	return s.Client.MkdirAll(p)
}

// Join implements FileSystem.
func (s *SFTPFileSystem) Join(elem ...string) string {
	return path.Join(elem...)
}

// Dir implements FileSystem.
func (s *SFTPFileSystem) Dir(p string) string {
	return path.Dir(p)
}

// NewSFTPService serves the file commands over an established SFTP client.
func NewSFTPService(client *sftp.Client) ws.Service {
	logger := logging.Named("fs")
	return &FSService{
		Access: NewAccess(NewSFTPFileSystem(client), logger),
		logger: logger,
	}
}
