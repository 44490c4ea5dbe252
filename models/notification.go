package models

import (
	"encoding/json"
	"time"
)

const (
	NotifyGroupJoinRequest   = "group_join_request"
	NotifyGroupJoinApproved  = "group_join_approved"
	NotifyGroupJoinRejected  = "group_join_rejected"
	NotifyGroupDeleted       = "group_deleted"
	NotifyFriendRequest      = "friend_request"
	NotifyFriendAccepted     = "friend_request_accepted"
	NotifyMemberRemoved      = "group_member_removed"
	NotifyGroupOwnershipMove = "group_admin_transferred"
)

// Notification is the durable copy of a realtime event so a client that missed
// the push can reconcile on reconnect.
type Notification struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	RefType   string          `json:"refType"`
	RefID     string          `json:"refId"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	IsRead    bool            `json:"isRead"`
	ReadAt    *time.Time      `json:"readAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
