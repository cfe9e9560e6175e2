// Package dashboard provides a real-time WebSocket feed of sync activity.
//
// The dashboard broadcasts mutations, mirror refreshes and drift reports to
// connected WebSocket clients, and serves the current sync status over HTTP.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	stdsync "sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Jana-haikel/Task-manager/internal/store/sync"
)

// MessageType defines the type of dashboard message
type MessageType string

const (
	// MessageTypeMutation indicates a task, todo or settings mutation
	MessageTypeMutation MessageType = "mutation"

	// MessageTypeSyncComplete indicates a full resync completed
	MessageTypeSyncComplete MessageType = "sync_complete"

	// MessageTypeDrift indicates a drift check ran
	MessageTypeDrift MessageType = "drift"

	// MessageTypeStatus carries the current sync status (sent on connect)
	MessageTypeStatus MessageType = "status"
)

// Message represents a dashboard broadcast message
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// StatusFunc returns the current sync status.
type StatusFunc func(ctx context.Context) (*sync.Status, error)

// Server manages WebSocket connections and broadcasts dashboard messages
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server
	status   StatusFunc

	clients   map[*websocket.Conn]bool
	clientsMu stdsync.RWMutex

	broadcast chan Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     stdsync.WaitGroup

	logger *log.Logger
}

// Config holds server configuration
type Config struct {
	// Host to bind (default: 127.0.0.1)
	Host string

	// Port to listen on (default: 8080, 0 picks a free port)
	Port int

	// Status serves /status and the welcome message. Optional.
	Status StatusFunc

	// Logger for server activity (default: stderr logger)
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Host:   "127.0.0.1",
		Port:   8080,
		Logger: log.Default(),
	}
}

// NewServer creates a new dashboard WebSocket server
func NewServer(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	host := config.Host
	if host == "" {
		host = "127.0.0.1"
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:      net.JoinHostPort(host, fmt.Sprint(config.Port)),
		status:    config.Status,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    config.Logger,
	}
}

// Start begins the HTTP server and WebSocket handler
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/", s.handleRoot)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Printf("Dashboard server listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	s.logger.Println("Stopping dashboard server")

	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	s.wg.Wait()

	s.logger.Println("Dashboard server stopped")
	return nil
}

// Broadcast queues a message for all connected clients. It never blocks:
// when the queue is full the message is dropped.
func (s *Server) Broadcast(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
		return
	default:
		s.logger.Println("Warning: broadcast channel full, dropping message")
	}
}

func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case msg := <-s.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}

			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Printf("Failed to marshal message: %v", err)
				continue
			}

			s.clientsMu.RLock()
			clients := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				clients = append(clients, conn)
			}
			s.clientsMu.RUnlock()

			for _, conn := range clients {
				ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()

				if err != nil {
					s.logger.Printf("Failed to send to client: %v", err)
					s.removeClient(conn)
				}
			}
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	// Welcome message carries the current status so a fresh client does not
	// have to wait for the next event.
	welcome := Message{Type: MessageTypeStatus, Timestamp: time.Now()}
	if st := s.currentStatus(r.Context()); st != nil {
		welcome.Data, _ = json.Marshal(st)
	}
	welcomeData, _ := json.Marshal(welcome)
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	err = conn.Write(ctx, websocket.MessageText, welcomeData)
	cancel()
	if err != nil {
		s.logger.Printf("Failed to send welcome: %v", err)
		_ = conn.Close(websocket.StatusInternalError, "")
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	clientCount := len(s.clients)
	s.clientsMu.Unlock()

	s.logger.Printf("Client connected (total: %d)", clientCount)

	go s.readLoop(conn)
}

// readLoop keeps the connection alive and notices client disconnects.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		if _, _, err := conn.Read(s.ctx); err != nil {
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, exists := s.clients[conn]; exists {
		delete(s.clients, conn)
		clientCount := len(s.clients)
		s.clientsMu.Unlock()

		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.logger.Printf("Client disconnected (total: %d)", clientCount)
	} else {
		s.clientsMu.Unlock()
	}
}

func (s *Server) currentStatus(ctx context.Context) *sync.Status {
	if s.status == nil {
		return nil
	}
	st, err := s.status(ctx)
	if err != nil {
		s.logger.Printf("Failed to read sync status: %v", err)
		return nil
	}
	return st
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		http.Error(w, "status not available", http.StatusNotFound)
		return
	}
	st, err := s.status(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>Task Manager Sync</title>
</head>
<body>
    <h1>Task Manager Sync Feed</h1>
    <p>WebSocket endpoint: <code>ws://%s/ws</code></p>
    <p>Sync status: <a href="/status">/status</a></p>
    <p>Health check: <a href="/health">/health</a></p>
</body>
</html>`, r.Host)
}

// GetAddr returns the server's listening address
func (s *Server) GetAddr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the current number of connected clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
