package sqlstore

import (
	"context"
	"slices"

	sq "github.com/Masterminds/squirrel"

	"foodieconnect/models"
)

var messageColumns = []string{"id", "sender_id", "receiver_id", "message", "is_read", "created_at"}

func (s *Store) CreateMessage(ctx context.Context, m *models.ChatMessage) error {
	_, err := s.sb().Insert("chat_messages").
		Columns(messageColumns...).
		Values(m.ID, m.SenderID, m.ReceiverID, m.Message, m.IsRead, utc(m.CreatedAt)).
		ExecContext(ctx)
	if err != nil {
		return wrap("create message", err)
	}
	return nil
}

func (s *Store) ChatHistory(ctx context.Context, a, b string, limit int) ([]models.ChatMessage, error) {
	q := s.sb().Select(messageColumns...).From("chat_messages").
		Where(sq.Or{
			sq.Eq{"sender_id": a, "receiver_id": b},
			sq.Eq{"sender_id": b, "receiver_id": a},
		}).
		OrderBy("created_at DESC", "id DESC")
	msgs, err := s.queryMessages(ctx, page(q, 0, limit))
	if err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}

func (s *Store) MessagesFor(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	return s.queryMessages(ctx, s.sb().Select(messageColumns...).From("chat_messages").
		Where(sq.Or{sq.Eq{"sender_id": userID}, sq.Eq{"receiver_id": userID}}).
		OrderBy("created_at DESC", "id DESC"))
}

func (s *Store) queryMessages(ctx context.Context, b sq.SelectBuilder) ([]models.ChatMessage, error) {
	rows, err := b.QueryContext(ctx)
	if err != nil {
		return nil, wrap("list messages", err)
	}
	msgs := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Message, &m.IsRead, &m.CreatedAt); err != nil {
			rows.Close()
			return nil, wrap("scan message", err)
		}
		msgs = append(msgs, m)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, wrap("list messages", err)
	}

	ids := make([]string, 0, len(msgs)*2)
	for _, m := range msgs {
		ids = append(ids, m.SenderID, m.ReceiverID)
	}
	users, err := s.UserSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		msgs[i].Sender = summaryOrStub(users, msgs[i].SenderID)
		msgs[i].Receiver = summaryOrStub(users, msgs[i].ReceiverID)
	}
	return msgs, nil
}

// MarkRead marks every unread message from senderID to receiverID as read.
func (s *Store) MarkRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	res, err := s.sb().Update("chat_messages").Set("is_read", true).
		Where(sq.Eq{"sender_id": senderID, "receiver_id": receiverID, "is_read": false}).
		ExecContext(ctx)
	if err != nil {
		return 0, wrap("mark messages read", err)
	}
	return rowsAffected(res), nil
}

func (s *Store) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := s.count(ctx, s.sb().Select("COUNT(*)").From("chat_messages").
		Where(sq.Eq{"receiver_id": userID, "is_read": false}))
	if err != nil {
		return 0, wrap("count unread messages", err)
	}
	return n, nil
}
