// Package project exposes the open-project slot to the frontend.
package project

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"editorshell/dialog"
	"editorshell/logging"
	proj "editorshell/project"
	ws "editorshell/websocket"
)

const (
	actionGetCurrent = "get_current_project"
	actionOpenDialog = "open_project_dialog"
	actionLoadLast   = "load_last_project"
	actionClose      = "close_project"

	DialogTitle = "Open Project Folder"
)

// Projects is the part of the project manager the service drives.
type Projects interface {
	Current() proj.State
	Open(folder string) proj.State
	LoadLast() (proj.State, bool)
	Close()
}

type ProjectService struct {
	projects Projects
	picker   dialog.Picker
	reply    *ws.Responder

	// cancelled when the session or the process ends so an open picker goes away with it
	ctx    context.Context
	cancel context.CancelFunc

	logger *zap.Logger
}

func NewService(ctx context.Context, projects Projects, picker dialog.Picker) *ProjectService {
	ctx, cancel := context.WithCancel(ctx)
	return &ProjectService{
		projects: projects,
		picker:   picker,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logging.Named("project"),
	}
}

func (s *ProjectService) Name() string {
	return "project"
}

func (s *ProjectService) Register(conn ws.Sender) {
	s.reply = &ws.Responder{Conn: conn, Service: s.Name(), Logger: s.logger}
}

func (s *ProjectService) HandleTextMessage(id, action string, data json.RawMessage) {
	switch action {
	case actionGetCurrent:
		s.reply.Reply(id, action, s.projects.Current())
	case actionOpenDialog:
		s.handleOpenDialog(id)
	case actionLoadLast:
		st, ok := s.projects.LoadLast()
		if !ok {
			s.reply.Reply(id, action, nil)
			return
		}
		s.reply.Reply(id, action, st)
	case actionClose:
		s.projects.Close()
		s.reply.Ack(id, action)
	default:
		s.logger.Debug("unknown action", zap.String("action", action))
	}
}

func (s *ProjectService) Cleanup(err error) {
	s.cancel()
}

// handleOpenDialog blocks until the user answers the picker. A cancelled or failed
// picker both answer "no project selected".
func (s *ProjectService) handleOpenDialog(id string) {
	folder, ok, err := s.picker.PickFolder(s.ctx, DialogTitle)
	if err != nil {
		if s.ctx.Err() != nil {
			s.logger.Debug("folder picker cancelled with session", zap.Error(err))
		} else {
			s.logger.Warn("folder picker failed", zap.Error(err))
		}
	}
	if err != nil || !ok {
		s.reply.Reply(id, actionOpenDialog, nil)
		return
	}

	s.reply.Reply(id, actionOpenDialog, s.projects.Open(folder))
}
