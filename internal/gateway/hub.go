package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// Hub tracks connected websocket clients.
type Hub struct {
	server *Server

	mu      sync.RWMutex
	clients map[*Client]bool
}

func newHub(s *Server) *Hub {
	return &Hub{server: s, clients: make(map[*Client]bool)}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	s.hub.register(conn)
}

func (h *Hub) register(conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, 64),
		hub:    h,
		ctx:    ctx,
		cancel: cancel,
	}
	conn.EnableWriteCompression(true)

	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.setGauge(count)

	h.server.log.Info("ws client connected", slog.String("client", c.id), slog.Int("clients", count))

	go c.writePump()
	go c.readPump()
	return c
}

// remove drops a client. Safe to call more than once.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	c.cancel()
	if ok {
		h.setGauge(count)
		h.server.log.Info("ws client disconnected", slog.String("client", c.id), slog.Int("clients", count))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.remove(c)
	}
}

func (h *Hub) setGauge(n int) {
	if m := h.server.metrics; m != nil {
		m.WSClients.Set(float64(n))
	}
}
