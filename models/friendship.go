package models

import "time"

type FriendStatus string

const (
	FriendPending  FriendStatus = "pending"
	FriendAccepted FriendStatus = "accepted"
)

// FriendEntry is one row of a user's friend list. A pending entry lives on the
// receiver's list with PeerID set to the requester.
type FriendEntry struct {
	ID        string       `json:"id"`
	OwnerID   string       `json:"-"`
	PeerID    string       `json:"userId"`
	Status    FriendStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

type FriendWithUser struct {
	FriendEntry
	User UserSummary `json:"user"`
}
