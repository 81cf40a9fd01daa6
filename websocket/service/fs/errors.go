package fs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("path does not exist")
	ErrNotADirectory = errors.New("path is not a directory")
	ErrNotAFile      = errors.New("path is not a file")
	ErrIO            = errors.New("i/o error")
	ErrDecode        = errors.New("file is not valid UTF-8 text")
)

// Error records the operation and path that failed. Err wraps one of the sentinels above.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, path string, err error) *Error {
	return &Error{Op: op, Path: path, Err: err}
}

func ioError(op, path string, cause error) *Error {
	return &Error{Op: op, Path: path, Err: fmt.Errorf("%w: %w", ErrIO, cause)}
}

const (
	opList       = "list"
	opReadText   = "read"
	opWriteText  = "write"
	opReadBinary = "read binary"
	opDownload   = "download"
)
