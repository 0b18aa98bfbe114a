// Package live pushes state changes to connected browser tabs over WebSocket
package live

import (
	"log"
	"slices"
	"sync"
	"time"

	"github.com/codyseavey/nextbet/internal/metrics"
)

// Message is one server-to-client frame
type Message struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub fans published messages out to every registered client. The most
// recent message of each type is replayed to clients as they join.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	last    map[string]Message // by message type
	order   []string           // types in publish order, most recent last
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		last:    make(map[string]Message),
	}
}

// Publish sends a message to all clients without blocking. Clients whose
// buffer is full are disconnected.
func (h *Hub) Publish(msgType string, payload any) {
	msg := Message{Type: msgType, Payload: payload, Timestamp: time.Now()}

	h.mu.Lock()
	h.last[msgType] = msg
	h.order = append(slices.DeleteFunc(h.order, func(t string) bool { return t == msgType }), msgType)
	var slow []*Client
	for c := range h.clients {
		if !c.trySend(msg) {
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		log.Printf("Live hub: client %s too slow, disconnecting", c.ID)
		h.Unregister(c)
	}
}

// Register adds a client and replays the latest message of each type to it,
// oldest first
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	for _, msgType := range h.order {
		c.trySend(h.last[msgType])
	}
	metrics.LiveClients.Set(float64(len(h.clients)))
	return true
}

// Unregister removes a client and closes its send buffer. Safe to call more
// than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		metrics.LiveClients.Set(float64(len(h.clients)))
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	log.Printf("Live hub: shutting down (%d active clients)", len(h.clients))
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	metrics.LiveClients.Set(0)
}
