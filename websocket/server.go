package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"editorshell/logging"
	"editorshell/metrics"
)

// NotificationService is the service name carried by notifications pushed to the frontend.
const NotificationService = "menu"

// Submitter runs tasks on a worker pool.
type Submitter interface {
	Submit(task func())
}

// Notifier hands out a channel of notification names for one session.
type Notifier interface {
	Subscribe() chan string
	Unsubscribe(ch chan string)
}

type Options struct {
	Pool      Submitter
	Notifier  Notifier
	Timeout   time.Duration
	SessionID string

	// Sessions, when set, tracks the session for shutdown.
	Sessions    *Sessions
	CheckOrigin func(r *http.Request) bool
}

type registration struct {
	service Service
	pooled  bool
	passive bool
}

type Server struct {
	*Conn
	opts Options
	// written only before Start
	services map[string]*registration

	mu             sync.Mutex
	lastActiveTime time.Time

	done   chan struct{}
	logger *zap.Logger
}

func NewServer(w http.ResponseWriter, r *http.Request, opts Options) (*Server, error) {
	conn, err := NewConn(w, r, opts.CheckOrigin)
	if err != nil {
		return nil, err
	}

	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}

	return &Server{
		Conn:           conn,
		opts:           opts,
		services:       make(map[string]*registration),
		lastActiveTime: time.Now(),
		done:           make(chan struct{}),
		logger:         logging.Named("session").With(zap.String("session", opts.SessionID)),
	}, nil
}

// Register adds a command service. Its messages run as independent tasks on the pool
// and count as session activity.
func (s *Server) Register(service Service) {
	s.register(&registration{service: service, pooled: true})
}

// RegisterSerial adds a service whose messages are handled in arrival order on the
// session's read loop, e.g. terminal keystrokes.
func (s *Server) RegisterSerial(service Service) {
	s.register(&registration{service: service})
}

// RegisterPassive adds a serial service whose messages do not keep the session alive.
func (s *Server) RegisterPassive(service Service) {
	s.register(&registration{service: service, passive: true})
}

func (s *Server) register(reg *registration) {
	name := reg.service.Name()
	if _, exists := s.services[name]; exists {
		s.logger.Warn("service already registered", zap.String("service", name))
		return
	}

	reg.service.Register(s.Conn)
	s.services[name] = reg
}

func (s *Server) touch() {
	s.mu.Lock()
	s.lastActiveTime = time.Now()
	s.mu.Unlock()
}

func (s *Server) idleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActiveTime)
}

func (s *Server) checkTimeout() {
	if s.opts.Timeout <= 0 {
		return
	}

	interval := s.opts.Timeout / 6
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if s.idleFor() > s.opts.Timeout {
				s.logger.Info("closing idle session", zap.Duration("timeout", s.opts.Timeout))
				s.Close()
				return
			}
		}
	}
}

func (s *Server) forwardNotifications(ch chan string) {
	for event := range ch {
		s.WriteJSON(&ServiceMessage{
			Service: NotificationService,
			Id:      uuid.NewString(),
			Action:  event,
		})
	}
}

// Start serves the session until the connection closes. It blocks.
func (s *Server) Start() {
	metrics.SessionOpened()
	s.logger.Info("session started")

	if s.opts.Sessions != nil {
		s.opts.Sessions.add(s)
		defer s.opts.Sessions.remove(s)
	}

	go s.checkTimeout()

	if s.opts.Notifier != nil {
		ch := s.opts.Notifier.Subscribe()
		go s.forwardNotifications(ch)
		defer s.opts.Notifier.Unsubscribe(ch)
	}

	err := s.readLoop()

	close(s.done)
	for _, reg := range s.services {
		reg.service.Cleanup(err)
	}
	s.Close()

	metrics.SessionClosed()
	s.logger.Info("session ended", zap.Error(err))
}

func (s *Server) readLoop() error {
	for {
		_, data, err := s.ReadMessage()
		if err != nil {
			return err
		}

		var msg ServiceMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("error unmarshalling message", zap.Error(err))
			continue
		}

		s.dispatch(&msg)
	}
}

func (s *Server) dispatch(msg *ServiceMessage) {
	reg, exists := s.services[msg.Service]
	if !exists {
		s.logger.Debug("message for unknown service", zap.String("service", msg.Service))
		return
	}

	if !reg.passive {
		s.touch()
	}

	handle := func() {
		start := time.Now()
		reg.service.HandleTextMessage(msg.Id, msg.Action, msg.Data)
		metrics.RecordDuration(msg.Service, msg.Action, time.Since(start))
	}

	if reg.pooled && s.opts.Pool != nil {
		s.opts.Pool.Submit(handle)
		return
	}
	handle()
}
