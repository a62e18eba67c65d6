package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-notifier/internal/observability"
)

const RequestIDKey = "request_id"

// RequestID tags every request with X-Request-ID, minting one when absent, and
// carries it in the request context for envelopes published downstream.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := observability.RequestIDFromRequest(c.Request)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(observability.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}
