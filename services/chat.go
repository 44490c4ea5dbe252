package services

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"foodieconnect/apperr"
	"foodieconnect/models"
)

const (
	historyLimit   = 100
	maxMessageRune = 1000
)

// ChatService handles direct messages between users.
type ChatService struct {
	base
}

// History returns the latest messages between userID and peerID, oldest
// first, and marks the peer's messages to userID as read.
func (s *ChatService) History(ctx context.Context, userID, peerID string) ([]models.ChatMessage, error) {
	msgs, err := s.store.ChatHistory(ctx, userID, peerID, historyLimit)
	if err != nil {
		return nil, translate(err, nil)
	}
	if err := s.MarkRead(ctx, userID, peerID); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Send stores a message and pushes it to both sides.
func (s *ChatService) Send(ctx context.Context, senderID, receiverID, text string) (*models.ChatMessage, error) {
	text, err := requireText("Message", text, maxMessageRune)
	if err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, apperr.Validation("Cannot message yourself")
	}
	users, err := s.store.UserSummaries(ctx, []string{senderID, receiverID})
	if err != nil {
		return nil, translate(err, nil)
	}
	if _, ok := users[receiverID]; !ok {
		return nil, apperr.ErrUserNotFound
	}

	m := &models.ChatMessage{
		ID:         newID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    text,
		CreatedAt:  s.now(),
		Sender:     summary(users, senderID),
		Receiver:   summary(users, receiverID),
	}
	if err := s.store.CreateMessage(ctx, m); err != nil {
		err = translate(err, nil)
		logFailure("send message", err, "sender", senderID, "receiver", receiverID)
		return nil, err
	}
	s.notifier.Push(ctx, []string{receiverID}, models.EventReceiveMessage, m)
	s.notifier.Push(ctx, []string{senderID}, models.EventMessageSent, m)
	return m, nil
}

// MarkRead marks every unread message from peerID to userID as read and tells
// the peer when anything changed.
func (s *ChatService) MarkRead(ctx context.Context, userID, peerID string) error {
	n, err := s.store.MarkRead(ctx, peerID, userID)
	if err != nil {
		return translate(err, nil)
	}
	if n > 0 {
		s.notifier.Push(ctx, []string{peerID}, models.EventMessagesRead, map[string]any{"readBy": userID})
	}
	return nil
}

// Typing relays a typing indicator to receiverID.
func (s *ChatService) Typing(ctx context.Context, senderID, receiverID string, typing bool) {
	s.notifier.Push(ctx, []string{receiverID}, models.EventUserTyping, map[string]any{"userId": senderID, "isTyping": typing})
}

func (s *ChatService) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		return 0, translate(err, nil)
	}
	return n, nil
}

// Conversations lists userID's contacts with their latest message. Contacts
// are accepted friends, admins of the groups userID belongs to, members of the
// groups userID administers, and anyone userID has exchanged messages with.
// Contacts with history come first, newest first; the rest sort by name.
func (s *ChatService) Conversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	contacts, err := s.contacts(ctx, userID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.store.MessagesFor(ctx, userID)
	if err != nil {
		return nil, translate(err, nil)
	}
	convs := map[string]*models.Conversation{}
	for _, m := range msgs {
		peer, peerSummary := m.ReceiverID, m.Receiver
		if m.SenderID != userID {
			peer, peerSummary = m.SenderID, m.Sender
		}
		c, ok := convs[peer]
		if !ok {
			at := m.CreatedAt
			c = &models.Conversation{User: peerSummary, LastMessage: m.Message, LastMessageDate: &at, IsRead: m.IsRead}
			convs[peer] = c
			if !slices.Contains(contacts, peer) {
				contacts = append(contacts, peer)
			}
		}
		if m.ReceiverID == userID && !m.IsRead {
			c.UnreadCount++
		}
	}

	users, err := s.store.UserSummaries(ctx, contacts)
	if err != nil {
		return nil, translate(err, nil)
	}
	out := make([]models.Conversation, 0, len(contacts))
	for _, id := range contacts {
		if c, ok := convs[id]; ok {
			out = append(out, *c)
			continue
		}
		u, ok := users[id]
		if !ok {
			continue
		}
		out = append(out, models.Conversation{User: u, IsRead: true})
	}

	slices.SortStableFunc(out, func(a, b models.Conversation) int {
		switch {
		case a.LastMessageDate != nil && b.LastMessageDate != nil:
			return b.LastMessageDate.Compare(*a.LastMessageDate)
		case a.LastMessageDate != nil:
			return -1
		case b.LastMessageDate != nil:
			return 1
		}
		return cmp.Compare(strings.ToLower(a.User.FullName), strings.ToLower(b.User.FullName))
	})
	return out, nil
}

func (s *ChatService) contacts(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	add := func(id string) {
		if id != "" && id != userID && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	friends, err := s.store.FriendIDs(ctx, userID)
	if err != nil {
		return nil, translate(err, nil)
	}
	for _, id := range friends {
		add(id)
	}

	managed, err := s.store.AdminGroups(ctx, userID)
	if err != nil {
		return nil, translate(err, nil)
	}
	for _, g := range managed {
		for _, id := range g.Members {
			add(id)
		}
	}

	joined, err := s.store.MemberGroupItems(ctx, userID)
	if err != nil {
		return nil, translate(err, nil)
	}
	for _, g := range joined {
		add(g.Admin.ID)
	}
	return ids, nil
}
