package controller

import (
	"context"
	"net/http"
	"time"

	"editorshell/dialog"
	"editorshell/events"
	"editorshell/menu"
	"editorshell/project"
	ws "editorshell/websocket"
)

const AppName = "editorshell"

// Deps are the process-wide collaborators shared by every session.
type Deps struct {
	Pool     ws.Submitter
	Notifier *events.Broadcaster
	Projects *project.Manager
	Picker   dialog.Picker
	Menu     *menu.Controller

	// Context ends with the process; blocking work started by a session derives from it.
	Context  context.Context
	Sessions *ws.Sessions

	ConnectionTimeout time.Duration

	// TerminalDir is where local terminals start when no project is open.
	TerminalDir string

	// AllowedOrigins are browser origins admitted besides pages served from this machine.
	AllowedOrigins []string

	// KnownHosts is an OpenSSH known_hosts file used to verify remote hosts.
	KnownHosts string
}

func (d *Deps) context() context.Context {
	if d.Context == nil {
		return context.Background()
	}
	return d.Context
}

func (d *Deps) checkOrigin() func(r *http.Request) bool {
	return ws.AllowOrigins(d.AllowedOrigins)
}

func (d *Deps) sessionOptions() ws.Options {
	return ws.Options{
		Pool:        d.Pool,
		Notifier:    d.Notifier,
		Timeout:     d.ConnectionTimeout,
		Sessions:    d.Sessions,
		CheckOrigin: d.checkOrigin(),
	}
}

type sshInfo struct {
	Host     string `json:"host" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Port     int    `json:"port"`
}
