package websocket

import (
	"net/http"
	"sync"

	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"editorshell/logging"
)

// Sender is the write side of a frontend connection handed to services.
type Sender interface {
	WriteJSON(v any) error
	Close() error
}

type Conn struct {
	*ws.Conn
	*sync.Mutex

	logger *zap.Logger
}

var (
	upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
)

// WriteJSON serialises concurrent writers; gorilla connections allow one writer at a time.
func (c *Conn) WriteJSON(v any) error {
	c.Lock()
	err := c.Conn.WriteJSON(v)
	c.Unlock()

	if err != nil {
		c.logger.Warn("websocket write failed", zap.Error(err))
	}
	return err
}

// NewConn upgrades the HTTP request to a websocket connection. A nil checkOrigin
// only admits pages served from this machine.
func NewConn(w http.ResponseWriter, r *http.Request, checkOrigin func(r *http.Request) bool) (*Conn, error) {
	if checkOrigin == nil {
		checkOrigin = AllowOrigins(nil)
	}
	u := upgrader
	u.CheckOrigin = checkOrigin

	conn, err := u.Upgrade(w, r, nil)
	if err != nil {
		logging.Named("websocket").Warn("websocket upgrade failed", zap.Error(err))
		return nil, err
	}

	return &Conn{
		Conn:   conn,
		Mutex:  new(sync.Mutex),
		logger: logging.Named("websocket"),
	}, nil
}
