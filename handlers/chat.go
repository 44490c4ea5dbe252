package handlers

import (
	"github.com/gin-gonic/gin"

	"foodieconnect/utils"
)

type SendMessageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) GetConversations(c *gin.Context) {
	conversations, err := h.svc.Chat.Conversations(c.Request.Context(), userID(c))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, orEmpty(conversations))
}

func (h *Handler) GetUnreadCount(c *gin.Context) {
	n, err := h.svc.Chat.UnreadCount(c.Request.Context(), userID(c))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, UnreadCountResponse{UnreadCount: n})
}

// GetChatHistory returns the latest messages with a peer and marks the
// peer's messages read.
func (h *Handler) GetChatHistory(c *gin.Context) {
	messages, err := h.svc.Chat.History(c.Request.Context(), userID(c), c.Param("userId"))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, orEmpty(messages))
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if !bind(c, &req) {
		return
	}

	msg, err := h.svc.Chat.Send(c.Request.Context(), userID(c), c.Param("userId"), req.Message)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Created(c, msg)
}

func (h *Handler) MarkMessagesRead(c *gin.Context) {
	if err := h.svc.Chat.MarkRead(c.Request.Context(), userID(c), c.Param("userId")); err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, "Messages marked as read")
}
