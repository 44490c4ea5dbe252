package services

import (
	"context"
	"errors"

	"foodieconnect/apperr"
	"foodieconnect/models"
	"foodieconnect/notify"
	"foodieconnect/storage"
)

// FriendService maintains the friendship graph. A request is a pending entry
// owned by the receiver; accepting it adds the mirrored entry for the sender.
type FriendService struct {
	base
}

func (s *FriendService) SendRequest(ctx context.Context, fromID, toID string) error {
	if fromID == toID {
		return apperr.ErrSelfFriend
	}
	from, err := s.actor(ctx, fromID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetUser(ctx, toID); err != nil {
		return translate(err, apperr.ErrUserNotFound)
	}

	now := s.now()
	entry := &models.FriendEntry{
		ID:        newID(),
		OwnerID:   toID,
		PeerID:    fromID,
		Status:    models.FriendPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		existing, err := tx.FindFriendEntries(ctx, fromID, toID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return apperr.ErrDuplicateFriend
		}
		return tx.CreateFriendEntry(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return apperr.ErrDuplicateFriend
		}
		err = translate(err, nil)
		if !apperr.Is(err, apperr.KindConflict) {
			logFailure("send friend request", err, "from", fromID, "to", toID)
		}
		return err
	}

	text := from.Username + " sent you a friend request"
	s.notifier.Notify(ctx, []string{toID}, notify.Notice{
		Type:    models.NotifyFriendRequest,
		Title:   "Friend request",
		Message: text,
		RefType: "friend_request",
		RefID:   entry.ID,
		Data:    map[string]any{"requestId": entry.ID, "userId": fromID, "userName": from.Username, "message": text},
	})
	return nil
}

// Accept turns the pending request requestID owned by userID into a mutual
// friendship.
func (s *FriendService) Accept(ctx context.Context, userID, requestID string) error {
	var requester string
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		entry, err := tx.GetFriendEntry(ctx, requestID)
		if err != nil {
			return err
		}
		if entry.OwnerID != userID || entry.Status != models.FriendPending {
			return apperr.ErrRequestNotFound
		}
		now := s.now()
		if err := tx.AcceptFriendEntry(ctx, entry.ID, userID, now); err != nil {
			return err
		}
		requester = entry.PeerID
		return tx.CreateFriendEntry(ctx, &models.FriendEntry{
			ID:        newID(),
			OwnerID:   entry.PeerID,
			PeerID:    userID,
			Status:    models.FriendAccepted,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return apperr.ErrDuplicateFriend
		}
		err = translate(err, apperr.ErrRequestNotFound)
		logFailure("accept friend request", err, "request_id", requestID)
		return err
	}

	accepter, err := s.store.GetUser(ctx, userID)
	name := userID
	if err == nil {
		name = accepter.Username
	}
	text := name + " accepted your friend request"
	s.notifier.Notify(ctx, []string{requester}, notify.Notice{
		Type:    models.NotifyFriendAccepted,
		Title:   "Friend request accepted",
		Message: text,
		RefType: "user",
		RefID:   userID,
		Data:    map[string]any{"userId": userID, "userName": name, "message": text},
	})
	return nil
}

// Reject deletes the pending request without a trace.
func (s *FriendService) Reject(ctx context.Context, userID, requestID string) error {
	entry, err := s.store.GetFriendEntry(ctx, requestID)
	if err != nil {
		return translate(err, apperr.ErrRequestNotFound)
	}
	if entry.OwnerID != userID || entry.Status != models.FriendPending {
		return apperr.ErrRequestNotFound
	}
	if err := s.store.DeleteFriendEntry(ctx, entry.ID); err != nil {
		return translate(err, apperr.ErrRequestNotFound)
	}
	return nil
}

// Remove deletes the edge between userID and peerID in both directions.
func (s *FriendService) Remove(ctx context.Context, userID, peerID string) error {
	n, err := s.store.DeleteFriendship(ctx, userID, peerID)
	if err != nil {
		return translate(err, nil)
	}
	if n == 0 {
		return apperr.NotFound("Friendship not found")
	}
	return nil
}

func (s *FriendService) Friends(ctx context.Context, userID string) ([]models.FriendWithUser, error) {
	return s.list(ctx, userID, models.FriendAccepted)
}

// Pending lists the requests waiting for userID to answer.
func (s *FriendService) Pending(ctx context.Context, userID string) ([]models.FriendWithUser, error) {
	return s.list(ctx, userID, models.FriendPending)
}

func (s *FriendService) list(ctx context.Context, userID string, status models.FriendStatus) ([]models.FriendWithUser, error) {
	entries, err := s.store.ListFriendEntries(ctx, userID, status)
	if err != nil {
		return nil, translate(err, nil)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.PeerID)
	}
	users, err := s.store.UserSummaries(ctx, ids)
	if err != nil {
		return nil, translate(err, nil)
	}

	out := make([]models.FriendWithUser, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.FriendWithUser{FriendEntry: e, User: summary(users, e.PeerID)})
	}
	return out, nil
}
