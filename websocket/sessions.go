package websocket

import "sync"

// Sessions tracks the live sessions of a process so shutdown can end them.
// Hijacked connections are not closed by http.Server.Shutdown.
type Sessions struct {
	mu   sync.Mutex
	live map[*Server]struct{}
}

func NewSessions() *Sessions {
	return &Sessions{live: make(map[*Server]struct{})}
}

func (s *Sessions) add(srv *Server) {
	s.mu.Lock()
	s.live[srv] = struct{}{}
	s.mu.Unlock()
}

func (s *Sessions) remove(srv *Server) {
	s.mu.Lock()
	delete(s.live, srv)
	s.mu.Unlock()
}

func (s *Sessions) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// CloseAll closes every live connection. Each session then runs its services'
// Cleanup from its own read loop.
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	servers := make([]*Server, 0, len(s.live))
	for srv := range s.live {
		servers = append(servers, srv)
	}
	s.mu.Unlock()

	for _, srv := range servers {
		srv.logger.Info("closing session for shutdown")
		srv.Close()
	}
}
