package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/stackit/backend/internal/engine"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

type NotificationHandler struct {
	engine *engine.Engine
}

func NewNotificationHandler(eng *engine.Engine) *NotificationHandler {
	return &NotificationHandler{engine: eng}
}

// GetNotifications lists the user's notifications newest first. Listing
// marks everything read, matching the notification-page behavior.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	notifications, err := h.engine.Notifications(c.Request.Context(), userID)
	if err != nil {
		engineError(c, err)
		return
	}

	if err := h.engine.MarkAllRead(c.Request.Context(), userID); err != nil {
		engineError(c, err)
		return
	}

	if notifications == nil {
		notifications = []models.Notification{}
	}

	c.JSON(http.StatusOK, notifications)
}

// GetUnreadCount returns the user's unread notification count.
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	count, err := h.engine.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		engineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkRead marks a single notification as read (owner only).
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	notificationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification id"})
		return
	}

	if err := h.engine.MarkRead(c.Request.Context(), userID, notificationID); err != nil {
		engineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
