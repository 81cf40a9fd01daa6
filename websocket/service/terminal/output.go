package terminal

import (
	"encoding/json"

	ws "editorshell/websocket"
)

// outputWriter forwards each chunk of shell output as one command message whose
// data is the chunk as a JSON string.
type outputWriter struct {
	conn ws.Sender
	id   string
}

func (w *outputWriter) Write(p []byte) (int, error) {
	data, err := json.Marshal(string(p))
	if err != nil {
		return 0, err
	}

	if err := w.conn.WriteJSON(&ws.ServiceMessage{
		Service: serviceName,
		Id:      w.id,
		Action:  actionCommand,
		Data:    data,
	}); err != nil {
		return 0, err
	}
	return len(p), nil
}
