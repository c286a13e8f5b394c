package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/fortuna/clubsync/internal/scheduler"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event types pushed to subscribers
const (
	EventClubSynced     = "club_synced"
	EventBatchCompleted = "batch_completed"
)

// Event is the envelope of every pushed message
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Server pushes sync events to websocket subscribers
type Server struct {
	server *http.Server
	hub    *Hub
}

// NewServer creates a websocket server for port whose hub runs until ctx is done
func NewServer(ctx context.Context, port string) *Server {
	hub := NewHub()
	go hub.Run(ctx)

	s := &Server{hub: hub}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the websocket routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/sync", s.handleSync)
	mux.HandleFunc("/ws/health", s.handleHealth)
	return mux
}

// Start listens until Shutdown
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("websocket server listening")
	return s.server.ListenAndServe()
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	if !s.hub.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"clients": s.hub.ClientCount(),
	})
}

// ClientCount returns the number of connected subscribers
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

// ClubSynced pushes a club outcome without its snapshot
func (s *Server) ClubSynced(_ context.Context, result scheduler.SyncResult) {
	result.Snapshot = nil
	s.push(EventClubSynced, result)
}

// BatchCompleted pushes a batch summary
func (s *Server) BatchCompleted(_ context.Context, batch *scheduler.BatchResult) {
	s.push(EventBatchCompleted, batch)
}

func (s *Server) push(eventType string, data interface{}) {
	message, err := json.Marshal(Event{Type: eventType, Timestamp: time.Now().UTC(), Data: data})
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("failed to marshal event")
		return
	}
	s.hub.Broadcast(message)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
