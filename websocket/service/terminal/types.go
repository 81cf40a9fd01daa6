package terminal

import "io"

type Shell interface {
	io.ReadWriteCloser
	Resize(rows, cols int) error
}

type ShellProvider interface {
	NewShell(cwd string) (Shell, error)
}
