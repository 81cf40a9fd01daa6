package terminal

import (
	"encoding/json"
	"io"
	"sync"

	"go.uber.org/zap"

	ws "editorshell/websocket"
)

const serviceName = "terminal"

const (
	actionCommand   = "command"
	actionResize    = "resize"
	actionStart     = "start"
	actionTerminate = "terminate"
	// sent when the shell exits on its own
	actionExit = "exit"
)

type commandData string
type resizeData struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}
type startData struct {
	Cwd string `json:"cwd"`
}

type TerminalService struct {
	conn   ws.Sender
	reply  *ws.Responder
	shells map[string]Shell

	ShellProvider

	logger *zap.Logger
	mu     sync.RWMutex
}

func newService(sp ShellProvider, logger *zap.Logger) *TerminalService {
	return &TerminalService{
		ShellProvider: sp,
		shells:        make(map[string]Shell),
		logger:        logger,
	}
}

func (s *TerminalService) Name() string {
	return serviceName
}

func (s *TerminalService) Register(conn ws.Sender) {
	s.conn = conn
	s.reply = &ws.Responder{Conn: conn, Service: s.Name(), Logger: s.logger}
}

func (s *TerminalService) HandleTextMessage(id string, action string, data json.RawMessage) {
	s.mu.RLock()
	sh, exists := s.shells[id]
	s.mu.RUnlock()

	log := s.logger.With(zap.String("id", id), zap.String("action", action))

	if action != actionStart && !exists {
		log.Debug("received message before terminal started")
		return
	} else if action == actionStart && exists {
		log.Debug("received start message after terminal started")
		return
	}

	switch action {
	case actionCommand:
		var command commandData
		if err := json.Unmarshal(data, &command); err != nil {
			log.Warn("error unmarshalling command payload", zap.Error(err))
			return
		}
		if _, err := sh.Write([]byte(command)); err != nil {
			// the shell already exited, e.g. after `exit`
			log.Info("error writing to shell", zap.Error(err))
			s.remove(id)
			s.reply.Fail(id, actionCommand, err)
			return
		}
	case actionResize:
		var resize resizeData
		if err := json.Unmarshal(data, &resize); err != nil {
			log.Warn("error unmarshalling resize payload", zap.Error(err))
			return
		}
		if err := sh.Resize(resize.Rows, resize.Cols); err != nil {
			log.Info("error resizing shell", zap.Error(err))
			return
		}
	case actionStart:
		var start startData
		if len(data) > 0 && !s.reply.Decode(id, actionStart, data, &start) {
			return
		}
		if err := s.startShell(id, start.Cwd); err != nil {
			s.reply.Fail(id, actionStart, err)
			return
		}
		s.reply.Ack(id, actionStart)
	case actionTerminate:
		s.remove(id)
	default:
		log.Debug("unknown action")
	}
}

func (s *TerminalService) Cleanup(err error) {
	s.mu.Lock()
	shells := s.shells
	s.shells = make(map[string]Shell)
	s.mu.Unlock()

	for _, sh := range shells {
		sh.Close()
	}
}

// remove closes and forgets the shell for id.
func (s *TerminalService) remove(id string) {
	s.mu.Lock()
	sh, exists := s.shells[id]
	delete(s.shells, id)
	s.mu.Unlock()

	if exists {
		sh.Close()
	}
}

func (s *TerminalService) startShell(id string, cwd string) error {
	sh, err := s.ShellProvider.NewShell(cwd)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.shells[id] = sh
	s.mu.Unlock()

	go s.stream(id, sh, &outputWriter{conn: s.conn, id: id})

	return nil
}

// stream copies shell output to the client until the shell closes.
func (s *TerminalService) stream(id string, sh Shell, w io.Writer) {
	_, err := io.Copy(w, sh)
	s.logger.Debug("terminal output ended", zap.String("id", id), zap.Error(err))

	s.mu.Lock()
	owned := s.shells[id] == sh
	if owned {
		delete(s.shells, id)
	}
	s.mu.Unlock()

	// shells closed by terminate or cleanup need no notice
	if !owned {
		return
	}
	sh.Close()
	s.conn.WriteJSON(&ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  actionExit,
	})
}
