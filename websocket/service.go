package websocket

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"editorshell/metrics"
)

type Service interface {
	HandleTextMessage(id string, action string, data json.RawMessage)
	Name() string
	Cleanup(err error)
	Register(conn Sender)
}

type ServiceMessage struct {
	Service string          `json:"service"`
	Id      string          `json:"id,omitempty"`
	Action  string          `json:"action,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Responder writes command replies for one service.
type Responder struct {
	Conn    Sender
	Service string
	Logger  *zap.Logger
}

// Reply sends v as the data of the reply to request id. A nil v is sent as JSON null.
func (r *Responder) Reply(id, action string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		r.Fail(id, action, fmt.Errorf("failed to encode reply: %w", err))
		return
	}

	metrics.RecordResult(r.Service, action, nil)
	r.Conn.WriteJSON(&ServiceMessage{
		Service: r.Service,
		Id:      id,
		Action:  action,
		Data:    data,
	})
}

// Ack sends an empty reply to request id.
func (r *Responder) Ack(id, action string) {
	metrics.RecordResult(r.Service, action, nil)
	r.Conn.WriteJSON(&ServiceMessage{
		Service: r.Service,
		Id:      id,
		Action:  action,
	})
}

func (r *Responder) Fail(id, action string, err error) {
	r.Logger.Info("command failed",
		zap.String("action", action),
		zap.String("id", id),
		zap.Error(err),
	)

	metrics.RecordResult(r.Service, action, err)
	r.Conn.WriteJSON(&ServiceMessage{
		Service: r.Service,
		Id:      id,
		Action:  action,
		Error:   err.Error(),
	})
}

// Decode unmarshals a request payload, replying with an error when it is malformed.
func (r *Responder) Decode(id, action string, data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		r.Fail(id, action, fmt.Errorf("invalid %s payload: %w", action, err))
		return false
	}
	return true
}
