package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"editorshell/logging"
	ws "editorshell/websocket"
)

const (
	remoteTerm = "xterm-256color"
	remoteRows = 24
	remoteCols = 80
)

var remoteModes = ssh.TerminalModes{
	ssh.ECHO:          1,
	ssh.TTY_OP_ISPEED: 14400,
	ssh.TTY_OP_OSPEED: 14400,
}

// remoteShell is a login shell on the SSH host. Both output streams feed one pipe,
// which ends when the remote process exits.
type remoteShell struct {
	session *ssh.Session
	stdin   io.WriteCloser
	output  *io.PipeReader

	closeOnce sync.Once
	logger    *zap.Logger
}

func (r *remoteShell) Read(p []byte) (int, error) {
	return r.output.Read(p)
}

func (r *remoteShell) Write(p []byte) (int, error) {
	return r.stdin.Write(p)
}

func (r *remoteShell) Resize(rows, cols int) error {
	return r.session.WindowChange(rows, cols)
}

func (r *remoteShell) Close() error {
	var err error
	r.closeOnce.Do(func() {
		if cerr := r.stdin.Close(); cerr != nil {
			r.logger.Debug("closing remote stdin", zap.Error(cerr))
		}
		err = r.session.Close()
		r.output.Close()
	})
	return err
}

// RemoteShellProvider opens shells over an established SSH connection.
type RemoteShellProvider struct {
	Client *ssh.Client
	logger *zap.Logger
}

func (p *RemoteShellProvider) NewShell(cwd string) (Shell, error) {
	session, err := p.Client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("open ssh session: %w", err)
	}

	sh, err := p.start(session, cwd)
	if err != nil {
		session.Close()
		return nil, err
	}
	return sh, nil
}

func (p *RemoteShellProvider) start(session *ssh.Session, cwd string) (*remoteShell, error) {
	stdin, err := session.StdinPipe()
	if err != nil {
		return nil, err
	}

	output, w := io.Pipe()
	session.Stdout = w
	session.Stderr = w

	if err := session.RequestPty(remoteTerm, remoteRows, remoteCols, remoteModes); err != nil {
		return nil, fmt.Errorf("request pty: %w", err)
	}

	command := remoteCommand(cwd)
	if err := session.Start(command); err != nil {
		return nil, fmt.Errorf("start remote shell: %w", err)
	}
	p.logger.Debug("remote shell started", zap.String("command", command))

	go func() {
		err := session.Wait()
		p.logger.Debug("remote shell exited", zap.Error(err))
		w.Close()
	}()

	return &remoteShell{
		session: session,
		stdin:   stdin,
		output:  output,
		logger:  p.logger,
	}, nil
}

// remoteCommand runs the user's login shell, inside cwd when it exists on the host.
func remoteCommand(cwd string) string {
	login := `exec "${SHELL:-/bin/sh}" -l`
	if cwd == "" {
		return login
	}
	return "cd " + shellQuote(cwd) + " 2>/dev/null; " + login
}

// shellQuote wraps s in single quotes for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// NewSSHService serves shells on the host behind client.
func NewSSHService(client *ssh.Client) ws.Service {
	logger := logging.Named("terminal")
	return newService(&RemoteShellProvider{Client: client, logger: logger}, logger)
}
