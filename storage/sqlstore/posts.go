package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"foodieconnect/models"
	"foodieconnect/storage"
)

var postColumns = []string{"id", "group_id", "author_id", "content", "images", "recipe_id", "created_at"}

func scanPost(row scanner) (*models.GroupPost, error) {
	var p models.GroupPost
	var images string
	var recipeID sql.NullString
	if err := row.Scan(&p.ID, &p.GroupID, &p.AuthorID, &p.Content, &images, &recipeID, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.RecipeID = recipeID.String
	p.Images = []string{}
	if err := decodeJSON(images, &p.Images); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreatePost(ctx context.Context, p *models.GroupPost) error {
	_, err := s.sb().Insert("group_posts").
		Columns(postColumns...).
		Values(p.ID, p.GroupID, p.AuthorID, p.Content, encodeJSON(p.Images), nullString(p.RecipeID), utc(p.CreatedAt)).
		ExecContext(ctx)
	if err != nil {
		return wrap("create post", err)
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.GroupPost, error) {
	posts, err := s.queryPosts(ctx, s.sb().Select(postColumns...).From("group_posts").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, wrap("get post", sql.ErrNoRows)
	}
	return &posts[0], nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *Store) error {
		for _, table := range []string{"post_likes", "post_comments"} {
			if _, err := tx.sb().Delete(table).Where(sq.Eq{"post_id": id}).ExecContext(ctx); err != nil {
				return wrap("delete post "+table, err)
			}
		}
		res, err := tx.sb().Delete("group_posts").Where(sq.Eq{"id": id}).ExecContext(ctx)
		if err != nil {
			return wrap("delete post", err)
		}
		if rowsAffected(res) == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (s *Store) ListPosts(ctx context.Context, groupID string) ([]models.GroupPost, error) {
	return s.queryPosts(ctx, s.sb().Select(postColumns...).From("group_posts").
		Where(sq.Eq{"group_id": groupID}).OrderBy("created_at DESC", "id"))
}

func (s *Store) queryPosts(ctx context.Context, b sq.SelectBuilder) ([]models.GroupPost, error) {
	rows, err := b.QueryContext(ctx)
	if err != nil {
		return nil, wrap("list posts", err)
	}
	posts := []models.GroupPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			rows.Close()
			return nil, wrap("scan post", err)
		}
		posts = append(posts, *p)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, wrap("list posts", err)
	}
	if len(posts) == 0 {
		return posts, nil
	}

	ids := make([]string, 0, len(posts))
	userIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
		userIDs = append(userIDs, p.AuthorID)
	}

	likes, err := s.pairs(ctx, s.sb().Select("post_id", "user_id").From("post_likes").
		Where(sq.Eq{"post_id": ids}).OrderBy("created_at"))
	if err != nil {
		return nil, wrap("load post likes", err)
	}
	comments, err := s.commentsByPost(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, cs := range comments {
		for _, c := range cs {
			userIDs = append(userIDs, c.UserID)
		}
	}
	users, err := s.UserSummaries(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	for i := range posts {
		p := &posts[i]
		p.Author = summaryOrStub(users, p.AuthorID)
		p.Likes = likes[p.ID]
		if p.Likes == nil {
			p.Likes = []string{}
		}
		p.Comments = comments[p.ID]
		if p.Comments == nil {
			p.Comments = []models.PostComment{}
		}
		for j := range p.Comments {
			p.Comments[j].User = summaryOrStub(users, p.Comments[j].UserID)
		}
	}
	return posts, nil
}

// pairs groups the second column of b by its first.
func (s *Store) pairs(ctx context.Context, b sq.SelectBuilder) (map[string][]string, error) {
	rows, err := b.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = append(out[k], v)
	}
	return out, rows.Err()
}

var postCommentColumns = []string{"id", "post_id", "user_id", "text", "created_at"}

func scanPostComment(row scanner) (*models.PostComment, error) {
	var c models.PostComment
	if err := row.Scan(&c.ID, &c.PostID, &c.UserID, &c.Text, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) commentsByPost(ctx context.Context, ids []string) (map[string][]models.PostComment, error) {
	rows, err := s.sb().Select(postCommentColumns...).From("post_comments").
		Where(sq.Eq{"post_id": ids}).OrderBy("created_at", "id").QueryContext(ctx)
	if err != nil {
		return nil, wrap("load post comments", err)
	}
	defer rows.Close()

	out := make(map[string][]models.PostComment)
	for rows.Next() {
		c, err := scanPostComment(rows)
		if err != nil {
			return nil, wrap("scan post comment", err)
		}
		out[c.PostID] = append(out[c.PostID], *c)
	}
	return out, rows.Err()
}

func (s *Store) TogglePostLike(ctx context.Context, postID, userID string, at time.Time) (bool, error) {
	var liked bool
	err := s.inTx(ctx, func(tx *Store) error {
		res, err := tx.sb().Delete("post_likes").
			Where(sq.Eq{"post_id": postID, "user_id": userID}).ExecContext(ctx)
		if err != nil {
			return wrap("unlike post", err)
		}
		if rowsAffected(res) > 0 {
			return nil
		}
		if _, err := tx.sb().Insert("post_likes").
			Columns("post_id", "user_id", "created_at").
			Values(postID, userID, utc(at)).ExecContext(ctx); err != nil {
			return wrap("like post", err)
		}
		liked = true
		return nil
	})
	return liked, err
}

func (s *Store) AddPostComment(ctx context.Context, c *models.PostComment) error {
	_, err := s.sb().Insert("post_comments").
		Columns(postCommentColumns...).
		Values(c.ID, c.PostID, c.UserID, c.Text, utc(c.CreatedAt)).
		ExecContext(ctx)
	if err != nil {
		return wrap("add post comment", err)
	}
	return nil
}

func (s *Store) GetPostComment(ctx context.Context, id string) (*models.PostComment, error) {
	row := s.sb().Select(postCommentColumns...).From("post_comments").Where(sq.Eq{"id": id}).QueryRowContext(ctx)
	c, err := scanPostComment(row)
	if err != nil {
		return nil, wrap("get post comment", err)
	}
	return c, nil
}

func (s *Store) DeletePostComment(ctx context.Context, id string) error {
	res, err := s.sb().Delete("post_comments").Where(sq.Eq{"id": id}).ExecContext(ctx)
	if err != nil {
		return wrap("delete post comment", err)
	}
	if rowsAffected(res) == 0 {
		return storage.ErrNotFound
	}
	return nil
}
