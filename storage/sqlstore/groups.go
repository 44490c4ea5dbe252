package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"foodieconnect/models"
	"foodieconnect/storage"
)

var groupColumns = []string{
	"id", "name", "description", "category", "is_private", "cover_image",
	"rules", "admin_id", "version", "created_at", "updated_at",
}

const memberCountExpr = "(SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id)"

func scanGroup(row scanner) (*models.Group, error) {
	var g models.Group
	var rules string
	if err := row.Scan(
		&g.ID, &g.Name, &g.Description, &g.Category, &g.IsPrivate, &g.CoverImage,
		&rules, &g.AdminID, &g.Version, &g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		return nil, err
	}
	g.Rules = []string{}
	if err := decodeJSON(rules, &g.Rules); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) CreateGroup(ctx context.Context, g *models.Group) error {
	return s.inTx(ctx, func(tx *Store) error {
		_, err := tx.sb().Insert("cooking_groups").
			Columns(groupColumns...).
			Values(g.ID, g.Name, g.Description, g.Category, g.IsPrivate, g.CoverImage,
				encodeJSON(g.Rules), g.AdminID, g.Version, utc(g.CreatedAt), utc(g.UpdatedAt)).
			ExecContext(ctx)
		if err != nil {
			return wrap("create group", err)
		}
		return tx.AddMember(ctx, g.ID, g.AdminID, g.CreatedAt)
	})
}

func (s *Store) getGroupWhere(ctx context.Context, pred sq.Eq) (*models.Group, error) {
	row := s.sb().Select(groupColumns...).From("cooking_groups").Where(pred).QueryRowContext(ctx)
	g, err := scanGroup(row)
	if err != nil {
		return nil, wrap("get group", err)
	}
	if err := s.loadMembership(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) loadMembership(ctx context.Context, g *models.Group) error {
	members, err := s.queryStrings(ctx, s.sb().Select("user_id").From("group_members").
		Where(sq.Eq{"group_id": g.ID}).OrderBy("position"))
	if err != nil {
		return wrap("load group members", err)
	}
	pending, err := s.queryStrings(ctx, s.sb().Select("user_id").From("group_join_requests").
		Where(sq.Eq{"group_id": g.ID}).OrderBy("requested_at", "user_id"))
	if err != nil {
		return wrap("load join requests", err)
	}
	g.Members = members
	g.PendingRequests = pending
	return nil
}

func (s *Store) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	return s.getGroupWhere(ctx, sq.Eq{"id": id})
}

func (s *Store) GetGroupByName(ctx context.Context, name string) (*models.Group, error) {
	return s.getGroupWhere(ctx, sq.Eq{"name": name})
}

func (s *Store) UpdateGroup(ctx context.Context, g *models.Group) error {
	res, err := s.sb().Update("cooking_groups").
		Set("name", g.Name).
		Set("description", g.Description).
		Set("category", g.Category).
		Set("is_private", g.IsPrivate).
		Set("cover_image", g.CoverImage).
		Set("rules", encodeJSON(g.Rules)).
		Set("updated_at", utc(g.UpdatedAt)).
		Where(sq.Eq{"id": g.ID}).
		ExecContext(ctx)
	if err != nil {
		return wrap("update group", err)
	}
	if rowsAffected(res) == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteGroup removes the group with its memberships, requests and posts.
// Recipes tagged to the group are kept and untagged.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *Store) error {
		postsOfGroup := sq.Expr("post_id IN (SELECT id FROM group_posts WHERE group_id = ?)", id)
		deletes := []struct {
			table string
			pred  sq.Sqlizer
		}{
			{"post_comments", postsOfGroup},
			{"post_likes", postsOfGroup},
			{"group_posts", sq.Eq{"group_id": id}},
			{"group_members", sq.Eq{"group_id": id}},
			{"group_join_requests", sq.Eq{"group_id": id}},
		}
		for _, d := range deletes {
			if _, err := tx.sb().Delete(d.table).Where(d.pred).ExecContext(ctx); err != nil {
				return wrap("delete group "+d.table, err)
			}
		}

		if _, err := tx.sb().Update("recipes").Set("group_id", nil).
			Where(sq.Eq{"group_id": id}).ExecContext(ctx); err != nil {
			return wrap("untag group recipes", err)
		}

		res, err := tx.sb().Delete("cooking_groups").Where(sq.Eq{"id": id}).ExecContext(ctx)
		if err != nil {
			return wrap("delete group", err)
		}
		if rowsAffected(res) == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (s *Store) BumpGroupVersion(ctx context.Context, id string, expected int64, at time.Time) error {
	res, err := s.sb().Update("cooking_groups").
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", utc(at)).
		Where(sq.Eq{"id": id, "version": expected}).
		ExecContext(ctx)
	if err != nil {
		return wrap("bump group version", err)
	}
	if rowsAffected(res) == 0 {
		return storage.ErrVersionConflict
	}
	return nil
}

func (s *Store) SetGroupAdmin(ctx context.Context, groupID, adminID string) error {
	_, err := s.sb().Update("cooking_groups").Set("admin_id", adminID).
		Where(sq.Eq{"id": groupID}).ExecContext(ctx)
	if err != nil {
		return wrap("set group admin", err)
	}
	return nil
}

func (s *Store) AddMember(ctx context.Context, groupID, userID string, at time.Time) error {
	var last int64
	err := s.sb().Select("COALESCE(MAX(position), 0)").From("group_members").
		Where(sq.Eq{"group_id": groupID}).QueryRowContext(ctx).Scan(&last)
	if err != nil {
		return wrap("read member position", err)
	}

	_, err = s.sb().Insert("group_members").
		Columns("group_id", "user_id", "position", "joined_at").
		Values(groupID, userID, last+1, utc(at)).
		ExecContext(ctx)
	if err != nil {
		return wrap("add member", err)
	}
	return nil
}

func (s *Store) RemoveMember(ctx context.Context, groupID, userID string) error {
	res, err := s.sb().Delete("group_members").
		Where(sq.Eq{"group_id": groupID, "user_id": userID}).ExecContext(ctx)
	if err != nil {
		return wrap("remove member", err)
	}
	if rowsAffected(res) == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) AddJoinRequest(ctx context.Context, groupID, userID string, at time.Time) error {
	_, err := s.sb().Insert("group_join_requests").
		Columns("group_id", "user_id", "requested_at").
		Values(groupID, userID, utc(at)).
		ExecContext(ctx)
	if err != nil {
		return wrap("add join request", err)
	}
	return nil
}

func (s *Store) RemoveJoinRequest(ctx context.Context, groupID, userID string) (bool, error) {
	res, err := s.sb().Delete("group_join_requests").
		Where(sq.Eq{"group_id": groupID, "user_id": userID}).ExecContext(ctx)
	if err != nil {
		return false, wrap("remove join request", err)
	}
	return rowsAffected(res) > 0, nil
}

func (s *Store) groupListSelect() sq.SelectBuilder {
	return s.sb().Select(
		"g.id", "g.name", "g.description", "g.category", "g.is_private", "g.cover_image", "g.created_at",
		"g.admin_id", "COALESCE(u.username, '')", "COALESCE(u.full_name, '')", "COALESCE(u.profile_picture, '')",
		memberCountExpr,
	).From("cooking_groups g").LeftJoin("users u ON u.id = g.admin_id")
}

func (s *Store) scanGroupItems(b sq.SelectBuilder, ctx context.Context) ([]models.GroupListItem, error) {
	rows, err := b.QueryContext(ctx)
	if err != nil {
		return nil, wrap("list groups", err)
	}
	defer rows.Close()

	out := []models.GroupListItem{}
	for rows.Next() {
		var it models.GroupListItem
		if err := rows.Scan(
			&it.ID, &it.Name, &it.Description, &it.Category, &it.IsPrivate, &it.CoverImage, &it.CreatedAt,
			&it.Admin.ID, &it.Admin.Username, &it.Admin.FullName, &it.Admin.ProfilePicture,
			&it.MemberCount,
		); err != nil {
			return nil, wrap("scan group", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) ListGroups(ctx context.Context, f models.GroupFilter) ([]models.GroupListItem, int, error) {
	where := sq.And{}
	if f.Category != "" {
		where = append(where, sq.Eq{"g.category": f.Category})
	}
	if f.IsPrivate != nil {
		where = append(where, sq.Eq{"g.is_private": *f.IsPrivate})
	}
	if f.Search != "" {
		where = append(where, likeAny(f.Search, "g.name", "g.description"))
	}
	if f.MinMembers > 0 {
		where = append(where, sq.Expr(memberCountExpr+" >= ?", f.MinMembers))
	}
	if f.MaxMembers > 0 {
		where = append(where, sq.Expr(memberCountExpr+" <= ?", f.MaxMembers))
	}

	total, err := s.count(ctx, s.sb().Select("COUNT(*)").From("cooking_groups g").Where(where))
	if err != nil {
		return nil, 0, wrap("count groups", err)
	}

	q := s.groupListSelect().Where(where).OrderBy("g.created_at DESC", "g.id")
	items, err := s.scanGroupItems(page(q, f.Offset, f.Limit), ctx)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Store) MemberGroupItems(ctx context.Context, userID string) ([]models.GroupListItem, error) {
	q := s.groupListSelect().
		Join("group_members gm ON gm.group_id = g.id").
		Where(sq.Eq{"gm.user_id": userID}).
		OrderBy("g.created_at DESC", "g.id")
	return s.scanGroupItems(q, ctx)
}

func (s *Store) MemberGroups(ctx context.Context, userID string) ([]models.GroupSummary, error) {
	rows, err := s.sb().Select("g.id", "g.name", "g.category").
		From("cooking_groups g").
		Join("group_members gm ON gm.group_id = g.id").
		Where(sq.Eq{"gm.user_id": userID}).
		OrderBy("gm.joined_at", "g.id").
		QueryContext(ctx)
	if err != nil {
		return nil, wrap("list member groups", err)
	}
	defer rows.Close()

	out := []models.GroupSummary{}
	for rows.Next() {
		var g models.GroupSummary
		if err := rows.Scan(&g.ID, &g.Name, &g.Category); err != nil {
			return nil, wrap("scan member group", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) AdminGroups(ctx context.Context, userID string) ([]models.Group, error) {
	rows, err := s.sb().Select(groupColumns...).From("cooking_groups").
		Where(sq.Eq{"admin_id": userID}).OrderBy("created_at", "id").QueryContext(ctx)
	if err != nil {
		return nil, wrap("list admin groups", err)
	}

	var groups []models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			rows.Close()
			return nil, wrap("scan admin group", err)
		}
		groups = append(groups, *g)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, wrap("list admin groups", err)
	}

	// membership is loaded after the cursor is closed; SQLite runs on one connection
	for i := range groups {
		if err := s.loadMembership(ctx, &groups[i]); err != nil {
			return nil, err
		}
	}
	if groups == nil {
		groups = []models.Group{}
	}
	return groups, nil
}
