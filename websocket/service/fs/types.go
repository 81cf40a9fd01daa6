package fs

import "os"

// FileEntry is one immediate child of a listed directory. Children is never filled by a
// listing; the frontend lists a child path again to expand it.
type FileEntry struct {
	Name     string       `json:"name"`
	Path     string       `json:"path"`
	IsDir    bool         `json:"is_dir"`
	Children []*FileEntry `json:"children"`
}

// FileData is a whole file encoded for transport.
type FileData struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
}

// FileSystem is the storage a project lives on, local disk or a remote host.
type FileSystem interface {
	Stat(path string) (os.FileInfo, error)

	// ReadDir returns the entries of a directory without following symlinks.
	ReadDir(path string) ([]os.FileInfo, error)

	ReadFile(path string) ([]byte, error)

	// WriteFile creates or truncates the file at path.
	WriteFile(path string, data []byte) error

	MkdirAll(path string) error

	Join(elem ...string) string

	Dir(path string) string
}
