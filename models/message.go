package models

import "time"

type ChatMessage struct {
	ID         string      `json:"id"`
	SenderID   string      `json:"senderId"`
	ReceiverID string      `json:"receiverId"`
	Message    string      `json:"message"`
	IsRead     bool        `json:"isRead"`
	CreatedAt  time.Time   `json:"createdAt"`
	Sender     UserSummary `json:"sender"`
	Receiver   UserSummary `json:"receiver"`
}

// Conversation summarises the chat between the caller and one contact.
type Conversation struct {
	User            UserSummary `json:"user"`
	LastMessage     string      `json:"lastMessage"`
	LastMessageDate *time.Time  `json:"lastMessageDate"`
	IsRead          bool        `json:"isRead"`
	UnreadCount     int         `json:"unreadCount"`
}

// Realtime chat events.
const (
	EventReceiveMessage = "receive_message"
	EventMessageSent    = "message_sent"
	EventMessageError   = "message_error"
	EventUserTyping     = "user_typing"
	EventMessagesRead   = "messages_read"
	EventUserStatus     = "user_status"
)
