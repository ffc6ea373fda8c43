package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/openmbot/mbotlink/internal/engine"
	"github.com/openmbot/mbotlink/internal/logging"
)

// Config holds the server configuration
type Config struct {
	// Addr is the listen address, e.g. "localhost:8645".
	Addr string
}

// Server bridges engine events to WebSocket clients.
type Server struct {
	config *Config
	engine *engine.Engine

	httpServer  *http.Server
	upgrader    websocket.Upgrader
	unsubscribe func()

	mu      sync.Mutex
	clients map[*client]struct{}
}

// New creates a new Server instance wired to the given engine. The server
// receives engine events from the moment it is constructed.
func New(config *Config, eng *engine.Engine) *Server {
	s := &Server{
		config: config,
		engine: eng,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboards run on arbitrary local origins
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
	s.unsubscribe = eng.Subscribe(s.broadcast)
	return s
}

// Start begins listening and blocks until the listener fails or Shutdown is
// called. Engine events are fanned out to clients for the server's lifetime.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logging.Info("WebSocket bridge listening", zap.String("addr", s.config.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server and closes all clients.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down WebSocket bridge")
	if s.unsubscribe != nil {
		s.unsubscribe()
	}

	s.mu.Lock()
	for c := range s.clients {
		close(c.send)
		delete(s.clients, c)
	}
	s.mu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Handler returns the server's HTTP handler, for mounting under a custom
// listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	logging.LogConnection(r.RemoteAddr, "websocket_upgraded")

	c := &client{
		srv:  s,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"state":%q,"clients":%d}`, s.engine.State(), s.ClientCount())
}

// broadcast encodes one engine event and queues it on every client. Runs on
// the engine's dispatch goroutine, so it must not block.
func (s *Server) broadcast(ev engine.Event) {
	data, err := encodeEvent(ev)
	if err != nil {
		logging.Error("Failed to encode event", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.trySend(data)
	}
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}
