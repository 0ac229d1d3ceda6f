// Package messaging streams order lifecycle notifications to connected
// WebSocket clients (companion apps, overlays). The core only writes;
// client messages are discarded.
package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/armorer/blackmarket/internal/model"
)

const (
	clientSendSize = 256
	writeWait      = 10 * time.Second
)

// client is one connected subscriber with a single write goroutine.
type client struct {
	conn   *ws.Conn
	sendCh chan []byte
	done   chan struct{}
}

// Hub accepts WebSocket subscribers and broadcasts envelopes to them.
// A client that cannot keep up with the broadcast rate is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	server   *http.Server
	upgrader ws.Upgrader
	log      *slog.Logger
}

// NewHub creates a hub with no listener; call Start to serve.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: ws.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Start serves the /ws endpoint on addr in the background.
func (h *Hub) Start(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	h.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.log.Error("messaging listener failed", "addr", addr, "error", err)
		}
	}()
	h.log.Info("messaging hub listening", "addr", addr)
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn:   conn,
		sendCh: make(chan []byte, clientSendSize),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.log.Debug("client connected", "remote", conn.RemoteAddr().String())

	go h.writeLoop(c)
	go h.readLoop(c)
}

// writeLoop drains the client's send channel onto the wire.
func (h *Hub) writeLoop(c *client) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				h.drop(c, "deadline error")
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
				h.drop(c, "write error")
				return
			}
		}
	}
}

// readLoop discards inbound messages and notices disconnects.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c, "closed by peer")
			return
		}
	}
}

// Publish implements the order notifier: it wraps the order in an envelope
// and broadcasts it. Kind is one of the model.Notify* constants.
func (h *Hub) Publish(kind string, o model.Order) {
	notice := model.NoticeFromOrder(&o, o.FailReason)
	payload, err := json.Marshal(notice)
	if err != nil {
		h.log.Error("encoding notice failed", "order", o.ID, "error", err)
		return
	}
	h.Broadcast(model.Envelope{Type: kind, Payload: payload})
}

// Broadcast sends an envelope to every connected client. Slow clients are
// dropped rather than blocking the caller.
func (h *Hub) Broadcast(env model.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		h.log.Error("encoding envelope failed", "type", env.Type, "error", err)
		return
	}

	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		select {
		case c.sendCh <- data:
		default:
			h.drop(c, "send buffer full")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and stops the listener.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		close(c.done)
		c.conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, "")) //nolint:errcheck
		c.conn.Close()
	}

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return h.server.Shutdown(ctx)
	}
	return nil
}

func (h *Hub) drop(c *client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.mu.Unlock()

	close(c.done)
	c.conn.Close()
	h.log.Debug("client dropped", "reason", reason)
}
