// Package heartbeat answers keep-alive pings. Sessions register it as passive, so
// pings alone never keep an idle session open.
package heartbeat

import (
	"encoding/json"

	"editorshell/logging"
	ws "editorshell/websocket"
)

type Service struct {
	reply *ws.Responder
}

func NewService() ws.Service {
	return &Service{}
}

func (s *Service) Name() string {
	return "heartbeat"
}

func (s *Service) Register(conn ws.Sender) {
	s.reply = &ws.Responder{Conn: conn, Service: s.Name(), Logger: logging.Named("heartbeat")}
}

// HandleTextMessage acknowledges the ping under its own id and action; the payload is dropped.
func (s *Service) HandleTextMessage(id, action string, _ json.RawMessage) {
	s.reply.Ack(id, action)
}

func (s *Service) Cleanup(error) {}
