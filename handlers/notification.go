package handlers

import (
	"github.com/gin-gonic/gin"

	"foodieconnect/utils"
)

func (h *Handler) ListNotifications(c *gin.Context) {
	notes, err := h.svc.Notifications.List(c.Request.Context(), userID(c), c.Query("unread") == "true")
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, orEmpty(notes))
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	if err := h.svc.Notifications.MarkRead(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, "Notification marked as read")
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.svc.Notifications.MarkAllRead(c.Request.Context(), userID(c))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, ReadAllResponse{Message: "Notifications marked as read", Updated: n})
}
