package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-notifier/internal/middleware"
	"chat-notifier/internal/telemetry"
)

func requestIDFromContext(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(middleware.RequestIDKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) string {
	if id := c.GetString(middleware.UserIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-User-ID")
}

func emitAudit(c *gin.Context, emitter *telemetry.AuditEmitter, level, action, channelID, text string) {
	emitter.Emit(c.Request.Context(), level, action, channelID, text, requestIDFromContext(c), userIDFromContext(c))
}
