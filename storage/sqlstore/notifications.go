package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"foodieconnect/models"
	"foodieconnect/storage"
)

var notificationColumns = []string{
	"id", "user_id", "type", "title", "message", "ref_type", "ref_id",
	"payload", "is_read", "read_at", "created_at",
}

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	var payload sql.NullString
	if len(n.Payload) > 0 {
		payload = sql.NullString{String: string(n.Payload), Valid: true}
	}
	_, err := s.sb().Insert("notifications").
		Columns(notificationColumns...).
		Values(n.ID, n.UserID, n.Type, n.Title, n.Message, n.RefType, n.RefID,
			payload, n.IsRead, nil, utc(n.CreatedAt)).
		ExecContext(ctx)
	if err != nil {
		return wrap("create notification", err)
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	where := sq.Eq{"user_id": userID}
	if unreadOnly {
		where["is_read"] = false
	}
	q := s.sb().Select(notificationColumns...).From("notifications").
		Where(where).OrderBy("created_at DESC", "id")
	rows, err := page(q, 0, limit).QueryContext(ctx)
	if err != nil {
		return nil, wrap("list notifications", err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var payload sql.NullString
		var readAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.RefType, &n.RefID,
			&payload, &n.IsRead, &readAt, &n.CreatedAt); err != nil {
			return nil, wrap("scan notification", err)
		}
		if payload.Valid && payload.String != "" {
			n.Payload = []byte(payload.String)
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string, at time.Time) error {
	res, err := s.sb().Update("notifications").
		Set("is_read", true).
		Set("read_at", utc(at)).
		Where(sq.Eq{"id": id, "user_id": userID}).
		ExecContext(ctx)
	if err != nil {
		return wrap("mark notification read", err)
	}
	if rowsAffected(res) == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res, err := s.sb().Update("notifications").
		Set("is_read", true).
		Set("read_at", utc(at)).
		Where(sq.Eq{"user_id": userID, "is_read": false}).
		ExecContext(ctx)
	if err != nil {
		return 0, wrap("mark notifications read", err)
	}
	return rowsAffected(res), nil
}
