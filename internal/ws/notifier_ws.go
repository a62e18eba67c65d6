package ws

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chat-notifier/internal/middleware"
	"chat-notifier/internal/models"
	"chat-notifier/internal/notifications"
	"chat-notifier/internal/observability"
)

// Handler upgrades UI connections and streams session events to them. New clients
// get the current unread snapshot first.
type Handler struct {
	hub      *Hub
	facade   notifications.Facade
	upgrader websocket.Upgrader
}

// NewHandler constructs a Handler. Browser upgrades are accepted from the server's
// own host and from allowedOrigins.
func NewHandler(hub *Hub, facade notifications.Facade, allowedOrigins []string) *Handler {
	return &Handler{
		hub:      hub,
		facade:   facade,
		upgrader: websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// not a browser
			return true
		}
		if _, ok := set[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// Handle upgrades the connection and registers the client. Authentication runs in
// middleware before this.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chat-notifier/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)
	// the request context ends when Handle returns; the connection outlives it
	connCtx := context.WithoutCancel(ctx)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      c.GetString(middleware.UserIDKey),
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   c.GetString(middleware.RequestIDKey),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(conn, info)
	observability.IncWSActive()
	h.hub.publishWSEvent(ctx, "ws_connect", info, "")

	snap := h.facade.Snapshot()
	h.hub.Send(conn, models.Event{Type: models.EventSnapshot, Snapshot: &snap})

	// clients only listen; reading detects the close
	go func() {
		var (
			closeReason string
			readErr     error
		)
		defer func() {
			registered := h.hub.RemoveClient(conn)
			observability.DecWSActive()
			if registered && !websocket.IsCloseError(readErr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.hub.publishWSEvent(connCtx, "ws_error", info, closeReason)
			}
			h.hub.publishWSEvent(connCtx, "ws_disconnect", info, closeReason)
			conn.Close()
		}()
		for {
			if _, _, readErr = conn.ReadMessage(); readErr != nil {
				closeReason = readErr.Error()
				return
			}
		}
	}()
}
