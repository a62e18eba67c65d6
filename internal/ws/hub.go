package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-notifier/internal/logger"
	"chat-notifier/internal/models"
	"chat-notifier/internal/observability"
)

const (
	writeWait    = 10 * time.Second
	sendBuffer   = 32
	routingKeyWS = "ws_events.notifier"
)

// Conn is the write side of a websocket connection.
type Conn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type client struct {
	conn Conn
	info ConnInfo
	send chan []byte
}

// Hub fans session events out to every connected UI client. Each client has its own
// buffered queue and writer goroutine, so Broadcast never waits on the network.
type Hub struct {
	mu      sync.Mutex
	clients map[Conn]*client
	logg    *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(logg *logger.Logger) *Hub {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Hub{clients: make(map[Conn]*client), logg: logg}
}

// AddClient registers a connection and starts its writer.
func (h *Hub) AddClient(conn Conn, info ConnInfo) {
	c := &client{conn: conn, info: info, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[conn] = c
	h.mu.Unlock()
	go h.writePump(c)
}

// RemoveClient forgets a connection and stops its writer. It reports whether the
// connection was still registered.
func (h *Hub) RemoveClient(conn Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[conn]
	if !ok {
		return false
	}
	delete(h.clients, conn)
	close(c.send)
	return true
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues ev for every client. A client whose queue is full is dropped.
func (h *Hub) Broadcast(ev models.Event) {
	payload, ok := h.encode(ev)
	if !ok {
		return
	}

	var slow []*client
	h.mu.Lock()
	for _, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.drop(c, "send queue full")
	}
	observability.IncWSEvent(ev.Type)
}

// Send queues ev for a single client.
func (h *Hub) Send(conn Conn, ev models.Event) {
	payload, ok := h.encode(ev)
	if !ok {
		return
	}
	h.mu.Lock()
	c, registered := h.clients[conn]
	full := false
	if registered {
		select {
		case c.send <- payload:
		default:
			full = true
		}
	}
	h.mu.Unlock()
	if full {
		h.drop(c, "send queue full")
	}
}

func (h *Hub) encode(ev models.Event) ([]byte, bool) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logg.Error(context.Background(), "websocket event encode failed", err)
		return nil, false
	}
	return payload, true
}

func (h *Hub) writePump(c *client) {
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(c, err.Error())
			return
		}
	}
}

// drop unregisters c and closes its connection, which also ends its reader.
func (h *Hub) drop(c *client, reason string) {
	if !h.RemoveClient(c.conn) {
		return
	}
	h.logg.Warn(h.logg.WithField(context.Background(), "conn_id", c.info.ConnID), "websocket client dropped: "+reason, nil)
	c.conn.Close()
	h.publishWSEvent(context.Background(), "ws_error", c.info, reason)
}

func (h *Hub) publishWSEvent(ctx context.Context, event string, info ConnInfo, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	envelope := observability.NewEventEnvelope(ctx, "ws_events", event, payload)
	envelope.RequestID = info.RequestID
	envelope.TraceID = info.TraceID
	_ = observability.PublishEvent(ctx, routingKeyWS, envelope)
	observability.IncWSEvent(event)
}
