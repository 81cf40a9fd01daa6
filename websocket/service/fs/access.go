package fs

import (
	"encoding/base64"
	"errors"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Access implements the editor's file commands on top of a FileSystem.
// Every call reads or writes whole files in memory.
type Access struct {
	FS     FileSystem
	logger *zap.Logger
}

func NewAccess(fs FileSystem, logger *zap.Logger) *Access {
	return &Access{FS: fs, logger: logger}
}

// stat classifies a missing path as ErrNotFound and anything else as an i/o failure.
func (a *Access) stat(op, path string) (os.FileInfo, error) {
	info, err := a.FS.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newError(op, path, ErrNotFound)
		}
		return nil, ioError(op, path, err)
	}
	return info, nil
}

// List returns the visible immediate children of dir: directories first, then files,
// each group ordered by case-insensitive name. Any entry error fails the whole call.
func (a *Access) List(dir string) ([]*FileEntry, error) {
	info, err := a.stat(opList, dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, newError(opList, dir, ErrNotADirectory)
	}

	infos, err := a.FS.ReadDir(dir)
	if err != nil {
		return nil, ioError(opList, dir, err)
	}

	entries := make([]*FileEntry, 0, len(infos))
	for _, fi := range infos {
		name := fi.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		entryPath := a.FS.Join(dir, name)
		entries = append(entries, &FileEntry{
			Name:  name,
			Path:  entryPath,
			IsDir: a.isDir(entryPath, fi),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	return entries, nil
}

// isDir follows symlinks; a dangling link is a file.
func (a *Access) isDir(path string, fi os.FileInfo) bool {
	if fi.Mode()&os.ModeSymlink == 0 {
		return fi.IsDir()
	}
	target, err := a.FS.Stat(path)
	if err != nil {
		return false
	}
	return target.IsDir()
}

func (a *Access) readFile(op, path string) ([]byte, error) {
	info, err := a.stat(op, path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, newError(op, path, ErrNotAFile)
	}

	data, err := a.FS.ReadFile(path)
	if err != nil {
		return nil, ioError(op, path, err)
	}
	return data, nil
}

// ReadText returns the file as a string. Content that is not UTF-8 fails with ErrDecode.
func (a *Access) ReadText(path string) (string, error) {
	data, err := a.readFile(opReadText, path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", newError(opReadText, path, ErrDecode)
	}
	return string(data), nil
}

// WriteText replaces the file, creating missing parent directories first.
// Parent creation is best effort; a real problem surfaces from the write itself.
func (a *Access) WriteText(path, contents string) error {
	if err := a.FS.MkdirAll(a.FS.Dir(path)); err != nil && a.logger != nil {
		a.logger.Debug("failed to create parent directories", zap.String("path", path), zap.Error(err))
	}

	if err := a.FS.WriteFile(path, []byte(contents)); err != nil {
		return ioError(opWriteText, path, err)
	}
	return nil
}

// ReadBinary returns the file base64 encoded with a MIME type taken from its extension.
func (a *Access) ReadBinary(path string) (*FileData, error) {
	data, err := a.readFile(opReadBinary, path)
	if err != nil {
		return nil, err
	}

	return &FileData{
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType(path),
	}, nil
}
