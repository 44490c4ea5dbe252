package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"foodieconnect/models"
	"foodieconnect/storage"
)

var userColumns = []string{
	"id", "username", "email", "password", "full_name", "bio", "location",
	"experience", "profile_picture", "role", "created_at", "updated_at",
}

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Password, &u.FullName, &u.Bio, &u.Location,
		&u.Experience, &u.ProfilePicture, &role, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.sb().Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.Username, u.Email, u.Password, u.FullName, u.Bio, u.Location,
			u.Experience, u.ProfilePicture, string(u.Role), utc(u.CreatedAt), utc(u.UpdatedAt)).
		ExecContext(ctx)
	if err != nil {
		return wrap("create user", err)
	}
	return nil
}

func (s *Store) getUserWhere(ctx context.Context, pred sq.Eq) (*models.User, error) {
	row := s.sb().Select(userColumns...).From("users").Where(pred).QueryRowContext(ctx)
	u, err := scanUser(row)
	if err != nil {
		return nil, wrap("get user", err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getUserWhere(ctx, sq.Eq{"id": id})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUserWhere(ctx, sq.Eq{"email": email})
}

func (s *Store) UserExists(ctx context.Context, username, email string) (bool, error) {
	n, err := s.count(ctx, s.sb().Select("COUNT(*)").From("users").
		Where(sq.Or{sq.Eq{"username": username}, sq.Eq{"email": email}}))
	if err != nil {
		return false, wrap("check user exists", err)
	}
	return n > 0, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := s.sb().Update("users").
		Set("password", u.Password).
		Set("full_name", u.FullName).
		Set("bio", u.Bio).
		Set("location", u.Location).
		Set("experience", u.Experience).
		Set("profile_picture", u.ProfilePicture).
		Set("updated_at", utc(u.UpdatedAt)).
		Where(sq.Eq{"id": u.ID}).
		ExecContext(ctx)
	if err != nil {
		return wrap("update user", err)
	}
	if rowsAffected(res) == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) SetUserRole(ctx context.Context, id string, role models.Role) error {
	_, err := s.sb().Update("users").Set("role", string(role)).Where(sq.Eq{"id": id}).ExecContext(ctx)
	if err != nil {
		return wrap("set user role", err)
	}
	return nil
}

// DeleteUser removes the account with its favorites, likes, friendships,
// memberships and join requests. Authored recipes and posts stay.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *Store) error {
		deletes := []struct {
			table string
			pred  sq.Sqlizer
		}{
			{"user_favorites", sq.Eq{"user_id": id}},
			{"recipe_likes", sq.Eq{"user_id": id}},
			{"post_likes", sq.Eq{"user_id": id}},
			{"friendships", sq.Or{sq.Eq{"owner_id": id}, sq.Eq{"peer_id": id}}},
			{"group_members", sq.Eq{"user_id": id}},
			{"group_join_requests", sq.Eq{"user_id": id}},
			{"notifications", sq.Eq{"user_id": id}},
		}
		for _, d := range deletes {
			if _, err := tx.sb().Delete(d.table).Where(d.pred).ExecContext(ctx); err != nil {
				return wrap("delete user "+d.table, err)
			}
		}

		res, err := tx.sb().Delete("users").Where(sq.Eq{"id": id}).ExecContext(ctx)
		if err != nil {
			return wrap("delete user", err)
		}
		if rowsAffected(res) == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (s *Store) ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, int, error) {
	where := sq.And{sq.NotEq{"role": string(models.RoleGroupAdmin)}}
	if f.Search != "" {
		where = append(where, likeAny(f.Search, "username", "full_name", "bio"))
	}
	if f.Location != "" {
		where = append(where, likeAny(f.Location, "bio", "location"))
	}
	if f.Experience != "" {
		where = append(where, sq.Eq{"experience": f.Experience})
	}

	total, err := s.count(ctx, s.sb().Select("COUNT(*)").From("users").Where(where))
	if err != nil {
		return nil, 0, wrap("count users", err)
	}

	q := s.sb().Select(userColumns...).From("users").Where(where).OrderBy("created_at DESC")
	rows, err := page(q, f.Offset, f.Limit).QueryContext(ctx)
	if err != nil {
		return nil, 0, wrap("list users", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, wrap("scan user", err)
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

func (s *Store) UserSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary)
	ids = uniq(ids)
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.sb().Select("id", "username", "full_name", "profile_picture").
		From("users").Where(sq.Eq{"id": ids}).QueryContext(ctx)
	if err != nil {
		return nil, wrap("load user summaries", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.ProfilePicture); err != nil {
			return nil, wrap("scan user summary", err)
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

func (s *Store) AddFavorite(ctx context.Context, userID, recipeID string, at time.Time) error {
	_, err := s.sb().Insert("user_favorites").
		Columns("user_id", "recipe_id", "created_at").
		Values(userID, recipeID, utc(at)).
		ExecContext(ctx)
	if err != nil {
		return wrap("add favorite", err)
	}
	return nil
}

func (s *Store) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	_, err := s.sb().Delete("user_favorites").
		Where(sq.Eq{"user_id": userID, "recipe_id": recipeID}).
		ExecContext(ctx)
	if err != nil {
		return wrap("remove favorite", err)
	}
	return nil
}

func (s *Store) ListFavorites(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.queryStrings(ctx, s.sb().Select("recipe_id").From("user_favorites").
		Where(sq.Eq{"user_id": userID}).OrderBy("created_at"))
	if err != nil {
		return nil, wrap("list favorites", err)
	}
	return ids, nil
}
