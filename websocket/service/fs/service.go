package fs

import (
	"encoding/json"

	"go.uber.org/zap"

	ws "editorshell/websocket"
)

const (
	actionReadDirectory = "read_directory"
	actionReadText      = "read_file_contents"
	actionWriteText     = "write_file_contents"
	actionReadBinary    = "read_file_binary"
)

type pathData struct {
	Path string `json:"path"`
}

type writeData struct {
	Path     string `json:"path"`
	Contents string `json:"contents"`
}

type FSService struct {
	*Access
	reply *ws.Responder

	logger *zap.Logger
}

func (s *FSService) Name() string {
	return "fs"
}

// Register implements websocket.Service.
func (s *FSService) Register(conn ws.Sender) {
	s.reply = &ws.Responder{Conn: conn, Service: s.Name(), Logger: s.logger}
}

func (s *FSService) HandleTextMessage(id, action string, data json.RawMessage) {
	switch action {
	case actionReadDirectory:
		s.handleReadDirectory(id, data)
	case actionReadText:
		s.handleReadText(id, data)
	case actionWriteText:
		s.handleWriteText(id, data)
	case actionReadBinary:
		s.handleReadBinary(id, data)
	default:
		s.logger.Debug("unknown action", zap.String("action", action))
	}
}

func (s *FSService) Cleanup(err error) {}

func (s *FSService) handleReadDirectory(id string, data json.RawMessage) {
	var d pathData
	if !s.reply.Decode(id, actionReadDirectory, data, &d) {
		return
	}

	entries, err := s.List(d.Path)
	if err != nil {
		s.reply.Fail(id, actionReadDirectory, err)
		return
	}
	s.reply.Reply(id, actionReadDirectory, entries)
}

func (s *FSService) handleReadText(id string, data json.RawMessage) {
	var d pathData
	if !s.reply.Decode(id, actionReadText, data, &d) {
		return
	}

	text, err := s.ReadText(d.Path)
	if err != nil {
		s.reply.Fail(id, actionReadText, err)
		return
	}
	s.reply.Reply(id, actionReadText, text)
}

func (s *FSService) handleWriteText(id string, data json.RawMessage) {
	var d writeData
	if !s.reply.Decode(id, actionWriteText, data, &d) {
		return
	}

	if err := s.WriteText(d.Path, d.Contents); err != nil {
		s.reply.Fail(id, actionWriteText, err)
		return
	}
	s.reply.Ack(id, actionWriteText)
}

func (s *FSService) handleReadBinary(id string, data json.RawMessage) {
	var d pathData
	if !s.reply.Decode(id, actionReadBinary, data, &d) {
		return
	}

	file, err := s.ReadBinary(d.Path)
	if err != nil {
		s.reply.Fail(id, actionReadBinary, err)
		return
	}
	s.reply.Reply(id, actionReadBinary, file)
}
