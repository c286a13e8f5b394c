package websocket

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Hub tracks connected clients and fans broadcasts out to them
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	mu    sync.RWMutex
	count int
}

// NewHub creates an idle hub; call Run to start it
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount()
			log.Debug().Int("clients", len(h.clients)).Msg("websocket client connected")

		case client := <-h.unregister:
			if h.clients[client] {
				h.remove(client)
				log.Debug().Int("clients", len(h.clients)).Msg("websocket client disconnected")
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					log.Warn().Msg("websocket client too slow, dropping connection")
					h.remove(client)
				}
			}
		}
	}
}

// join registers a client unless the hub has stopped
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave unregisters a client; it is a no-op once the hub has stopped
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.setCount()
}

func (h *Hub) setCount() {
	h.mu.Lock()
	h.count = len(h.clients)
	h.mu.Unlock()
}

// Broadcast queues a message for every client. It never blocks.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		log.Warn().Msg("broadcast channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
