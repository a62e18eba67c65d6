package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-notifier/internal/api"
	"chat-notifier/internal/notifications"
)

// respondError turns a facade error into a JSON error response. Messaging API
// failures carry the server's message so the UI can show it as is.
func respondError(c *gin.Context, err error) {
	var apiErr *api.APIError
	switch {
	case errors.Is(err, notifications.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, notifications.ErrUnknownChannel):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, notifications.ErrNotDirect), errors.Is(err, notifications.ErrNoPendingInvitation):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		message := apiErr.Message
		if message == "" {
			message = http.StatusText(apiErr.Status)
		}
		c.JSON(status, gin.H{"error": message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
