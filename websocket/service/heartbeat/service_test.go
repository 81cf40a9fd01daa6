package heartbeat

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ws "editorshell/websocket"
)

type mockConn struct {
	messages []*ws.ServiceMessage
	mutex    sync.Mutex
}

func (m *mockConn) WriteJSON(v any) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.messages = append(m.messages, v.(*ws.ServiceMessage))
	return nil
}

func (m *mockConn) Close() error { return nil }

func TestHeartbeatService_Name(t *testing.T) {
	assert.Equal(t, "heartbeat", NewService().Name())
}

func TestHeartbeatService_HandleTextMessage(t *testing.T) {
	conn := &mockConn{}
	service := NewService()
	service.Register(conn)

	testCases := []struct {
		name     string
		id       string
		action   string
		data     json.RawMessage
		expected ws.ServiceMessage
	}{
		{
			name:   "Simple heartbeat",
			id:     "test-id-1",
			action: "ping",
			data:   json.RawMessage(`{}`),
			expected: ws.ServiceMessage{
				Service: "heartbeat",
				Action:  "ping",
				Id:      "test-id-1",
			},
		},
		{
			name:   "Payload is not echoed",
			id:     "test-id-2",
			action: "pong",
			data:   json.RawMessage(`{"ts":1}`),
			expected: ws.ServiceMessage{
				Service: "heartbeat",
				Action:  "pong",
				Id:      "test-id-2",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service.HandleTextMessage(tc.id, tc.action, tc.data)

			conn.mutex.Lock()
			defer conn.mutex.Unlock()
			require.NotEmpty(t, conn.messages)
			assert.Equal(t, tc.expected, *conn.messages[len(conn.messages)-1])
		})
	}
}

func TestHeartbeatService_Cleanup(t *testing.T) {
	service := NewService()
	assert.NotPanics(t, func() {
		service.Cleanup(nil)
		service.Cleanup(errors.New("test error"))
	})
}
