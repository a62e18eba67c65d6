package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-notifier/internal/models"
	"chat-notifier/internal/notifications"
	"chat-notifier/internal/telemetry"
)

// NotificationHandler exposes the notification facade to the console UI.
type NotificationHandler struct {
	facade notifications.Facade
	audit  *telemetry.AuditEmitter
}

// NewNotificationHandler builds a NotificationHandler.
func NewNotificationHandler(facade notifications.Facade, audit *telemetry.AuditEmitter) *NotificationHandler {
	return &NotificationHandler{facade: facade, audit: audit}
}

// RegisterRoutes wires every facade route on router.
func (h *NotificationHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/unread", h.GetUnread)
	router.GET("/channels", h.ListChannels)
	router.PUT("/channels/order", h.SetChannelOrder)
	router.POST("/channels/:channel_id/read", h.MarkRead)
	router.POST("/channels/:channel_id/invitation", h.SendInvitation)

	router.GET("/active-channel", h.GetActiveChannel)
	router.PUT("/active-channel", h.SetActiveChannel)
	router.DELETE("/active-channel", h.LeaveActiveChannel)
	router.POST("/active-channel/restore", h.RestoreActiveChannel)
	router.GET("/active-channel/messages", h.GetActiveMessages)

	router.GET("/preferences", h.GetPreferences)
	router.PATCH("/preferences/:channel_id", h.UpdatePreference)

	router.GET("/invitations", h.ListInvitations)
	router.POST("/invitations/:channel_id/accept", h.AcceptInvitation)
	router.POST("/invitations/:channel_id/reject", h.RejectInvitation)
	router.GET("/notices", h.DrainNotices)
}

// GetUnread returns totals plus the per-channel unread and activity maps.
func (h *NotificationHandler) GetUnread(c *gin.Context) {
	c.JSON(http.StatusOK, h.facade.Snapshot())
}

// ListChannels returns the sidebar sections.
func (h *NotificationHandler) ListChannels(c *gin.Context) {
	c.JSON(http.StatusOK, h.facade.Sections())
}

func (h *NotificationHandler) SetChannelOrder(c *gin.Context) {
	var order models.ChannelOrder
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.facade.SetChannelOrder(c.Request.Context(), order); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkRead moves the channel's cursor to message_id.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	var req struct {
		MessageID string `json:"message_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.facade.MarkRead(c.Request.Context(), c.Param("channel_id"), req.MessageID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.facade.Snapshot())
}

func (h *NotificationHandler) GetActiveChannel(c *gin.Context) {
	id, ok := h.facade.ActiveChannel()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"channel_id": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel_id": id})
}

// SetActiveChannel switches the chat view. A null or empty channel_id closes it.
func (h *NotificationHandler) SetActiveChannel(c *gin.Context) {
	var req struct {
		ChannelID *string `json:"channel_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	channelID := ""
	if req.ChannelID != nil {
		channelID = *req.ChannelID
	}
	if err := h.facade.SetActiveChannel(c.Request.Context(), channelID); err != nil {
		respondError(c, err)
		return
	}
	h.GetActiveChannel(c)
}

// LeaveActiveChannel tears the chat view down; the channel is still reopened on return.
func (h *NotificationHandler) LeaveActiveChannel(c *gin.Context) {
	h.facade.LeaveView(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// RestoreActiveChannel reopens the persisted channel when the chat view mounts.
func (h *NotificationHandler) RestoreActiveChannel(c *gin.Context) {
	id, ok := h.facade.MountView(c.Request.Context())
	if !ok {
		c.JSON(http.StatusOK, gin.H{"channel_id": nil, "restored": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel_id": id, "restored": true})
}

func (h *NotificationHandler) GetActiveMessages(c *gin.Context) {
	msgs, err := h.facade.ActiveMessages(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	type messageResponse struct {
		models.Message
		Display string `json:"display"`
	}
	responses := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		responses = append(responses, messageResponse{Message: m, Display: m.Body.Display()})
	}
	c.JSON(http.StatusOK, gin.H{"messages": responses})
}

func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"preferences": h.facade.Preferences()})
}

// UpdatePreference applies a partial pinned/muted/hidden change.
func (h *NotificationHandler) UpdatePreference(c *gin.Context) {
	var patch models.PreferencePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	channelID := c.Param("channel_id")
	pref, err := h.facade.UpdatePreference(c.Request.Context(), channelID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "preference.update", channelID, "channel preference updated")
	c.JSON(http.StatusOK, gin.H{"channel_id": channelID, "preference": pref})
}

func (h *NotificationHandler) ListInvitations(c *gin.Context) {
	c.JSON(http.StatusOK, h.facade.Invitations())
}

// SendInvitation posts an invitation marker to a direct channel.
func (h *NotificationHandler) SendInvitation(c *gin.Context) {
	var req struct {
		Note string `json:"note"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	channelID := c.Param("channel_id")
	msg, err := h.facade.SendInvitation(c.Request.Context(), channelID, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "invitation.send", channelID, "direct message invitation sent")
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (h *NotificationHandler) AcceptInvitation(c *gin.Context) {
	channelID := c.Param("channel_id")
	if err := h.facade.AcceptInvitation(c.Request.Context(), channelID); err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "invitation.accept", channelID, "direct message invitation accepted")
	c.JSON(http.StatusOK, gin.H{"status": "accepted", "channel_id": channelID})
}

// RejectInvitation deletes the channel for both parties.
func (h *NotificationHandler) RejectInvitation(c *gin.Context) {
	channelID := c.Param("channel_id")
	if err := h.facade.RejectInvitation(c.Request.Context(), channelID); err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "invitation.reject", channelID, "direct message invitation rejected")
	c.JSON(http.StatusOK, gin.H{"status": "rejected", "channel_id": channelID})
}

// DrainNotices returns the pending one-time notices; each is delivered once.
func (h *NotificationHandler) DrainNotices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notices": h.facade.DrainNotices()})
}
