package services

import (
	"context"

	"foodieconnect/apperr"
	"foodieconnect/models"
)

const notificationLimit = 50

type NotificationService struct {
	base
}

// List returns the newest notifications of userID.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	out, err := s.store.ListNotifications(ctx, userID, unreadOnly, notificationLimit)
	if err != nil {
		return nil, translate(err, nil)
	}
	return out, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return translate(s.store.MarkNotificationRead(ctx, id, userID, s.now()), apperr.ErrNotificationAbsent)
}

// MarkAllRead returns how many notifications changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, userID, s.now())
	if err != nil {
		return 0, translate(err, nil)
	}
	return n, nil
}
