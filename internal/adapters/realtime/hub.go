package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 2 * time.Second

// Hub fans session updates out to connected admin devices.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// Stats reports connected clients.
type Stats struct {
	Clients int `json:"clients"`
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

// Add registers a connection.
func (h *Hub) Add(ws *websocket.Conn) {
	h.mu.Lock()
	h.clients[ws] = struct{}{}
	h.mu.Unlock()
}

// Remove unregisters and closes a connection.
func (h *Hub) Remove(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// Broadcast writes v as JSON to every client. Clients that fail the write
// are dropped.
// POST: Returns the number of clients that received the message
func (h *Hub) Broadcast(v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("hub_broadcast_encode_failed", "error", err)
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delivered := 0
	for ws := range h.clients {
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.clients, ws)
			continue
		}
		delivered++
	}
	return delivered
}

// Stats returns the number of connected clients.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{Clients: len(h.clients)}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ws := range h.clients {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(writeWait))
		_ = ws.Close()
		delete(h.clients, ws)
	}
}
