package utility

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"lunchgenius/internal/session"
)

const wsWriteTimeout = 5 * time.Second

// Upgrader is shared by every websocket endpoint.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow CORS for development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub holds the open browser connections per session and pushes every new
// session view to them.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*websocket.Conn]*client
}

// client serialises writes to one connection.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(v session.View) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(v)
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*websocket.Conn]*client)}
}

func (h *Hub) add(sessionID string, conn *websocket.Conn) *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[*websocket.Conn]*client)
	}
	cl := &client{conn: conn}
	h.clients[sessionID][conn] = cl
	log.Info().Str("session_id", sessionID).Msg("WebSocket Client Connected")
	return cl
}

// Register adds a connection for a session (one per open tab).
func (h *Hub) Register(sessionID string, conn *websocket.Conn) {
	h.add(sessionID, conn)
}

// RegisterAndSend adds a connection and writes its first view before any
// later publish can reach it. Callers take the snapshot under the session
// lock (see session.Store.Watch) so no newer view can overtake it.
func (h *Hub) RegisterAndSend(sessionID string, conn *websocket.Conn, v session.View) error {
	cl := h.add(sessionID, conn)
	cl.mu.Lock()
	defer cl.mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(v); err != nil {
		h.Unregister(sessionID, conn)
		return err
	}
	return nil
}

// Unregister removes a connection (when the tab is closed).
func (h *Hub) Unregister(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[sessionID]
	if !ok {
		return
	}
	if _, ok := conns[conn]; !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.clients, sessionID)
	}
	log.Info().Str("session_id", sessionID).Msg("WebSocket Client Disconnected")
}

// Count returns the number of open connections for a session.
func (h *Hub) Count(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[sessionID])
}

// Publish implements session.Publisher. The hub lock is only held to copy
// the session's connections; writes go through each connection's own lock,
// so a slow tab only delays its own session.
func (h *Hub) Publish(sessionID string, v session.View) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients[sessionID]))
	for _, cl := range h.clients[sessionID] {
		targets = append(targets, cl)
	}
	h.mu.Unlock()

	for _, cl := range targets {
		if err := cl.write(v); err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to send WS message, removing client")
			cl.conn.Close()
			h.Unregister(sessionID, cl.conn)
		}
	}
}
