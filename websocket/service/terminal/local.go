package terminal

import (
	"context"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"editorshell/logging"
	ws "editorshell/websocket"
)

type PTYShell struct {
	terminate context.CancelFunc
	closeOnce sync.Once

	*os.File
}

func (p *PTYShell) Resize(rows, cols int) error {
	return pty.Setsize(p.File, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

func (p *PTYShell) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.terminate()
		err = p.File.Close()
	})
	return err
}

// ProjectDir reports the folder of the open project, if any.
type ProjectDir func() (string, bool)

type LocalShellProvider struct {
	// Program defaults to the login shell.
	Program string
	Project ProjectDir
	// DefaultDir is used when no cwd is requested and no project is open.
	DefaultDir string

	logger *zap.Logger
}

// workDir resolves the directory a new shell starts in.
func (l *LocalShellProvider) workDir(cwd string) string {
	var projectDir string
	if l.Project != nil {
		projectDir, _ = l.Project()
	}
	return resolveDir(cwd, projectDir, l.DefaultDir)
}

func (l *LocalShellProvider) NewShell(cwd string) (Shell, error) {
	program := l.Program
	if program == "" {
		program = loginShell()
	}

	ctx, cancel := context.WithCancel(context.Background())

	command := exec.CommandContext(ctx, program, "-l")
	command.Dir = l.workDir(cwd)
	command.Env = append(os.Environ(), "TERM=xterm-256color")

	f, err := pty.Start(command)
	if err != nil {
		l.logger.Error("failed to start pty", zap.String("program", program), zap.Error(err))
		cancel()
		return nil, err
	}

	l.logger.Debug("pty started",
		zap.String("program", program),
		zap.String("dir", command.Dir),
		zap.Int("pid", command.Process.Pid),
	)

	sh := &PTYShell{
		File:      f,
		terminate: cancel,
	}

	go func() {
		command.Wait()
		sh.Close()
	}()

	return sh, nil
}

// NewLocalService serves pty shells on this machine. New shells open in the current
// project folder unless the client asks for another directory.
func NewLocalService(project ProjectDir, defaultDir string) ws.Service {
	logger := logging.Named("terminal")

	sp := &LocalShellProvider{
		Project:    project,
		DefaultDir: defaultDir,
		logger:     logger,
	}

	return newService(sp, logger)
}
