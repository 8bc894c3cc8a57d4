package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/parkpass/parking-pass-api/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event is the payload broadcast to connected admin dashboards whenever an
// application changes state.
type Event struct {
	Type        string             `json:"type"`
	Application models.Application `json:"application"`
}

// Hub fans application lifecycle events out to connected websocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

// ServeWS upgrades the request and keeps the connection registered until the
// client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	zap.S().Debugw("websocket client connected", "remote", conn.RemoteAddr().String())

	// Drain incoming frames; the feed is one-way and reads only detect close.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

func (h *Hub) broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(event); err != nil {
			zap.S().Warnw("failed to write websocket event, dropping client",
				"error", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// ApplicationSubmitted implements registry.EventSink.
func (h *Hub) ApplicationSubmitted(app models.Application) {
	h.broadcast(Event{Type: "application_submitted", Application: app})
}

// ApplicationReviewed implements registry.EventSink.
func (h *Hub) ApplicationReviewed(app models.Application) {
	h.broadcast(Event{Type: "application_reviewed", Application: app})
}
