package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"foodieconnect/models"
	"foodieconnect/storage"
)

var friendColumns = []string{"id", "owner_id", "peer_id", "status", "created_at", "updated_at"}

func scanFriendEntry(row scanner) (*models.FriendEntry, error) {
	var e models.FriendEntry
	var status string
	if err := row.Scan(&e.ID, &e.OwnerID, &e.PeerID, &status, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Status = models.FriendStatus(status)
	return &e, nil
}

func (s *Store) CreateFriendEntry(ctx context.Context, e *models.FriendEntry) error {
	_, err := s.sb().Insert("friendships").
		Columns(friendColumns...).
		Values(e.ID, e.OwnerID, e.PeerID, string(e.Status), utc(e.CreatedAt), utc(e.UpdatedAt)).
		ExecContext(ctx)
	if err != nil {
		return wrap("create friend entry", err)
	}
	return nil
}

func (s *Store) GetFriendEntry(ctx context.Context, id string) (*models.FriendEntry, error) {
	row := s.sb().Select(friendColumns...).From("friendships").Where(sq.Eq{"id": id}).QueryRowContext(ctx)
	e, err := scanFriendEntry(row)
	if err != nil {
		return nil, wrap("get friend entry", err)
	}
	return e, nil
}

func (s *Store) listFriendEntries(ctx context.Context, where sq.Sqlizer) ([]models.FriendEntry, error) {
	rows, err := s.sb().Select(friendColumns...).From("friendships").
		Where(where).OrderBy("created_at", "id").QueryContext(ctx)
	if err != nil {
		return nil, wrap("list friend entries", err)
	}
	defer rows.Close()

	out := []models.FriendEntry{}
	for rows.Next() {
		e, err := scanFriendEntry(rows)
		if err != nil {
			return nil, wrap("scan friend entry", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *Store) FindFriendEntries(ctx context.Context, a, b string) ([]models.FriendEntry, error) {
	return s.listFriendEntries(ctx, sq.Or{
		sq.Eq{"owner_id": a, "peer_id": b},
		sq.Eq{"owner_id": b, "peer_id": a},
	})
}

func (s *Store) AcceptFriendEntry(ctx context.Context, id, ownerID string, at time.Time) error {
	res, err := s.sb().Update("friendships").
		Set("status", string(models.FriendAccepted)).
		Set("updated_at", utc(at)).
		Where(sq.Eq{"id": id, "owner_id": ownerID, "status": string(models.FriendPending)}).
		ExecContext(ctx)
	if err != nil {
		return wrap("accept friend entry", err)
	}
	if rowsAffected(res) == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteFriendEntry(ctx context.Context, id string) error {
	res, err := s.sb().Delete("friendships").Where(sq.Eq{"id": id}).ExecContext(ctx)
	if err != nil {
		return wrap("delete friend entry", err)
	}
	if rowsAffected(res) == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteFriendship(ctx context.Context, a, b string) (int64, error) {
	res, err := s.sb().Delete("friendships").Where(sq.Or{
		sq.Eq{"owner_id": a, "peer_id": b},
		sq.Eq{"owner_id": b, "peer_id": a},
	}).ExecContext(ctx)
	if err != nil {
		return 0, wrap("delete friendship", err)
	}
	return rowsAffected(res), nil
}

func (s *Store) ListFriendEntries(ctx context.Context, ownerID string, status models.FriendStatus) ([]models.FriendEntry, error) {
	return s.listFriendEntries(ctx, sq.Eq{"owner_id": ownerID, "status": string(status)})
}

func (s *Store) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.queryStrings(ctx, s.sb().Select("peer_id").From("friendships").
		Where(sq.Eq{"owner_id": userID, "status": string(models.FriendAccepted)}).
		OrderBy("created_at"))
	if err != nil {
		return nil, wrap("list friend ids", err)
	}
	return ids, nil
}
