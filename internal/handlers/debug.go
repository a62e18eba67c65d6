package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-notifier/internal/notifications"
	"chat-notifier/internal/telemetry"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router gin.IRouter, facade notifications.Facade, emitter *telemetry.AuditEmitter, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitAudit(c, emitter, "INFO", "debug.audit_test", "", "audit test")
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/debug/state", func(c *gin.Context) {
		active, _ := facade.ActiveChannel()
		c.JSON(http.StatusOK, gin.H{
			"snapshot":       facade.Snapshot(),
			"active_channel": active,
			"preferences":    facade.Preferences(),
			"invitations":    facade.Invitations(),
		})
	})
}
