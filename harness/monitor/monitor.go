// Package monitor streams sim/monitor.Sample values to live dashboard
// clients over WebSocket while a run is in flight. This is harness-level
// observability, not simulated NDN wire traffic (SPEC_FULL.md's
// domain-stack table), so unlike the forwarding core it is allowed to do
// real network I/O and needs real concurrency: HTTP handlers run on their
// own goroutines independent of the single-threaded simulation engine, so
// Server guards its client set with a mutex. Grounded on
// fw/face.WebSocketListener: an http.Server plus a websocket.Upgrader,
// upgrading every incoming connection in its handler.
package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	simmonitor "github.com/antswarm/antndn/sim/monitor"
)

// Server accepts WebSocket connections and broadcasts every Push'd sample
// to all of them.
type Server struct {
	server   http.Server
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewServer constructs a Server bound to addr (e.g. "localhost:8642").
// Call Run to start serving and Push to broadcast a sample to every
// connected client.
func NewServer(addr string) *Server {
	s := &Server{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.server = http.Server{Addr: addr, Handler: http.HandlerFunc(s.handler)}
	return s
}

// Run starts the HTTP server and blocks until Close is called, mirroring
// WebSocketListener.Run's ListenAndServe-then-filter-ErrServerClosed shape.
func (s *Server) Run() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close shuts the server down and disconnects every client.
func (s *Server) Close() error {
	s.mu.Lock()
	for c := range s.clients {
		c.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()
	return s.server.Close()
}

// Handler returns the upgrade handler Server serves on its own
// http.Server, for callers that want to mount it on an externally managed
// mux or test server instead of calling Run.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handler)
}

func (s *Server) handler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()
}

// Push broadcasts sample as JSON to every connected client, dropping and
// disconnecting any client whose write fails rather than letting one slow
// dashboard stall the run.
func (s *Server) Push(sample simmonitor.Sample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("monitor: marshal sample: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(s.clients, conn)
		}
	}
	return nil
}

// ClientCount reports how many dashboard clients are currently connected.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
