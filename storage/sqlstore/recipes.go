package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"foodieconnect/models"
	"foodieconnect/storage"
)

var recipeColumns = []string{
	"r.id", "r.author_id", "r.group_id", "r.title", "r.description", "r.category", "r.cuisine",
	"r.difficulty", "r.prep_time", "r.cook_time", "r.servings", "r.ingredients", "r.instructions",
	"r.images", "r.tags", "r.video_url", "r.created_at", "r.updated_at",
}

func scanRecipe(row scanner) (*models.Recipe, error) {
	var r models.Recipe
	var groupID sql.NullString
	var ingredients, instructions, images, tags string
	if err := row.Scan(
		&r.ID, &r.AuthorID, &groupID, &r.Title, &r.Description, &r.Category, &r.Cuisine,
		&r.Difficulty, &r.PrepTime, &r.CookTime, &r.Servings, &ingredients, &instructions,
		&images, &tags, &r.VideoURL, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	r.GroupID = groupID.String
	r.Ingredients = []models.Ingredient{}
	r.Instructions = []string{}
	r.Images = []string{}
	r.Tags = []string{}
	for _, f := range []struct {
		raw string
		dst any
	}{
		{ingredients, &r.Ingredients},
		{instructions, &r.Instructions},
		{images, &r.Images},
		{tags, &r.Tags},
	} {
		if err := decodeJSON(f.raw, f.dst); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

func (s *Store) CreateRecipe(ctx context.Context, r *models.Recipe) error {
	_, err := s.sb().Insert("recipes").
		Columns("id", "author_id", "group_id", "title", "description", "category", "cuisine",
			"difficulty", "prep_time", "cook_time", "servings", "ingredients", "instructions",
			"images", "tags", "video_url", "created_at", "updated_at").
		Values(r.ID, r.AuthorID, nullString(r.GroupID), r.Title, r.Description, r.Category, r.Cuisine,
			r.Difficulty, r.PrepTime, r.CookTime, r.Servings, encodeJSON(r.Ingredients), encodeJSON(r.Instructions),
			encodeJSON(r.Images), encodeJSON(r.Tags), r.VideoURL, utc(r.CreatedAt), utc(r.UpdatedAt)).
		ExecContext(ctx)
	if err != nil {
		return wrap("create recipe", err)
	}
	return nil
}

func (s *Store) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	recipes, err := s.queryRecipes(ctx, s.sb().Select(recipeColumns...).From("recipes r").Where(sq.Eq{"r.id": id}))
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, wrap("get recipe", sql.ErrNoRows)
	}
	return &recipes[0], nil
}

func (s *Store) UpdateRecipe(ctx context.Context, r *models.Recipe) error {
	res, err := s.sb().Update("recipes").
		Set("group_id", nullString(r.GroupID)).
		Set("title", r.Title).
		Set("description", r.Description).
		Set("category", r.Category).
		Set("cuisine", r.Cuisine).
		Set("difficulty", r.Difficulty).
		Set("prep_time", r.PrepTime).
		Set("cook_time", r.CookTime).
		Set("servings", r.Servings).
		Set("ingredients", encodeJSON(r.Ingredients)).
		Set("instructions", encodeJSON(r.Instructions)).
		Set("images", encodeJSON(r.Images)).
		Set("tags", encodeJSON(r.Tags)).
		Set("video_url", r.VideoURL).
		Set("updated_at", utc(r.UpdatedAt)).
		Where(sq.Eq{"id": r.ID}).
		ExecContext(ctx)
	if err != nil {
		return wrap("update recipe", err)
	}
	if rowsAffected(res) == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *Store) error {
		for _, table := range []string{"recipe_likes", "recipe_comments", "user_favorites"} {
			if _, err := tx.sb().Delete(table).Where(sq.Eq{"recipe_id": id}).ExecContext(ctx); err != nil {
				return wrap("delete recipe "+table, err)
			}
		}
		if _, err := tx.sb().Update("group_posts").Set("recipe_id", nil).
			Where(sq.Eq{"recipe_id": id}).ExecContext(ctx); err != nil {
			return wrap("unlink recipe posts", err)
		}

		res, err := tx.sb().Delete("recipes").Where(sq.Eq{"id": id}).ExecContext(ctx)
		if err != nil {
			return wrap("delete recipe", err)
		}
		if rowsAffected(res) == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func recipeFilter(f models.RecipeFilter) sq.And {
	where := sq.And{}
	if f.Search != "" {
		where = append(where, likeAny(f.Search, "r.title", "r.description"))
	}
	if f.Category != "" {
		where = append(where, sq.Eq{"r.category": f.Category})
	}
	if f.Cuisine != "" {
		where = append(where, sq.Eq{"r.cuisine": f.Cuisine})
	}
	if f.Difficulty != "" {
		where = append(where, sq.Eq{"r.difficulty": f.Difficulty})
	}
	if f.MaxPrepTime > 0 {
		where = append(where, sq.LtOrEq{"r.prep_time": f.MaxPrepTime})
	}
	if len(f.Tags) > 0 {
		// tags are a JSON array of strings; match the quoted element
		or := sq.Or{}
		for _, t := range f.Tags {
			or = append(or, sq.Expr("r.tags LIKE ? ESCAPE '!'", containsPattern(`"`+t+`"`)))
		}
		where = append(where, or)
	}
	if f.Ingredient != "" {
		where = append(where, likeAny(f.Ingredient, "r.ingredients"))
	}
	if f.AuthorID != "" {
		where = append(where, sq.Eq{"r.author_id": f.AuthorID})
	}
	if f.GroupID != "" {
		where = append(where, sq.Eq{"r.group_id": f.GroupID})
	}
	return where
}

func (s *Store) ListRecipes(ctx context.Context, f models.RecipeFilter) ([]models.Recipe, int, error) {
	where := recipeFilter(f)

	total, err := s.count(ctx, s.sb().Select("COUNT(*)").From("recipes r").Where(where))
	if err != nil {
		return nil, 0, wrap("count recipes", err)
	}

	q := s.sb().Select(recipeColumns...).From("recipes r").Where(where).OrderBy("r.created_at DESC", "r.id")
	recipes, err := s.queryRecipes(ctx, page(q, f.Offset, f.Limit))
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

func (s *Store) PopularRecipes(ctx context.Context, limit int) ([]models.Recipe, error) {
	q := s.sb().Select(recipeColumns...).From("recipes r").
		OrderBy("(SELECT COUNT(*) FROM recipe_likes l WHERE l.recipe_id = r.id) DESC", "r.created_at DESC", "r.id")
	return s.queryRecipes(ctx, page(q, 0, limit))
}

func (s *Store) RecipesByGroups(ctx context.Context, groupIDs []string, since time.Time) ([]models.Recipe, error) {
	groupIDs = uniq(groupIDs)
	if len(groupIDs) == 0 {
		return []models.Recipe{}, nil
	}
	where := sq.And{sq.Eq{"r.group_id": groupIDs}}
	if !since.IsZero() {
		where = append(where, sq.GtOrEq{"r.created_at": utc(since)})
	}
	return s.queryRecipes(ctx, s.sb().Select(recipeColumns...).From("recipes r").
		Where(where).OrderBy("r.created_at DESC", "r.id"))
}

func (s *Store) RecipesByAuthors(ctx context.Context, authorIDs []string, since time.Time) ([]models.Recipe, error) {
	authorIDs = uniq(authorIDs)
	if len(authorIDs) == 0 {
		return []models.Recipe{}, nil
	}
	where := sq.And{sq.Eq{"r.author_id": authorIDs}}
	if !since.IsZero() {
		where = append(where, sq.GtOrEq{"r.created_at": utc(since)})
	}
	return s.queryRecipes(ctx, s.sb().Select(recipeColumns...).From("recipes r").
		Where(where).OrderBy("r.created_at DESC", "r.id"))
}

// queryRecipes runs b and hydrates authors, groups, likes and comments in
// batches so a page costs a fixed number of queries.
func (s *Store) queryRecipes(ctx context.Context, b sq.SelectBuilder) ([]models.Recipe, error) {
	rows, err := b.QueryContext(ctx)
	if err != nil {
		return nil, wrap("list recipes", err)
	}
	recipes := []models.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			rows.Close()
			return nil, wrap("scan recipe", err)
		}
		recipes = append(recipes, *r)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, wrap("list recipes", err)
	}
	if len(recipes) == 0 {
		return recipes, nil
	}

	if err := s.hydrateRecipes(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func (s *Store) hydrateRecipes(ctx context.Context, recipes []models.Recipe) error {
	ids := make([]string, 0, len(recipes))
	userIDs := make([]string, 0, len(recipes))
	groupIDs := make([]string, 0)
	for _, r := range recipes {
		ids = append(ids, r.ID)
		userIDs = append(userIDs, r.AuthorID)
		if r.GroupID != "" {
			groupIDs = append(groupIDs, r.GroupID)
		}
	}

	likes, err := s.likesByRecipe(ctx, ids)
	if err != nil {
		return err
	}
	comments, err := s.commentsByRecipe(ctx, ids)
	if err != nil {
		return err
	}
	for _, cs := range comments {
		for _, c := range cs {
			userIDs = append(userIDs, c.UserID)
		}
	}
	users, err := s.UserSummaries(ctx, userIDs)
	if err != nil {
		return err
	}
	groups, err := s.groupSummaries(ctx, groupIDs)
	if err != nil {
		return err
	}

	for i := range recipes {
		r := &recipes[i]
		r.Author = summaryOrStub(users, r.AuthorID)
		if g, ok := groups[r.GroupID]; ok {
			r.Group = &g
		}
		r.Likes = likes[r.ID]
		if r.Likes == nil {
			r.Likes = []string{}
		}
		r.LikeCount = len(r.Likes)
		r.Comments = comments[r.ID]
		if r.Comments == nil {
			r.Comments = []models.RecipeComment{}
		}
		for j := range r.Comments {
			r.Comments[j].User = summaryOrStub(users, r.Comments[j].UserID)
		}
	}
	return nil
}

func summaryOrStub(users map[string]models.UserSummary, id string) models.UserSummary {
	if u, ok := users[id]; ok {
		return u
	}
	return models.UserSummary{ID: id}
}

func (s *Store) groupSummaries(ctx context.Context, ids []string) (map[string]models.GroupSummary, error) {
	out := make(map[string]models.GroupSummary)
	ids = uniq(ids)
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.sb().Select("id", "name", "category").From("cooking_groups").
		Where(sq.Eq{"id": ids}).QueryContext(ctx)
	if err != nil {
		return nil, wrap("load group summaries", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g models.GroupSummary
		if err := rows.Scan(&g.ID, &g.Name, &g.Category); err != nil {
			return nil, wrap("scan group summary", err)
		}
		out[g.ID] = g
	}
	return out, rows.Err()
}

func (s *Store) likesByRecipe(ctx context.Context, ids []string) (map[string][]string, error) {
	likes, err := s.pairs(ctx, s.sb().Select("recipe_id", "user_id").From("recipe_likes").
		Where(sq.Eq{"recipe_id": ids}).OrderBy("created_at"))
	if err != nil {
		return nil, wrap("load recipe likes", err)
	}
	return likes, nil
}

var recipeCommentColumns = []string{"id", "recipe_id", "user_id", "text", "created_at"}

func scanRecipeComment(row scanner) (*models.RecipeComment, error) {
	var c models.RecipeComment
	if err := row.Scan(&c.ID, &c.RecipeID, &c.UserID, &c.Text, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) commentsByRecipe(ctx context.Context, ids []string) (map[string][]models.RecipeComment, error) {
	rows, err := s.sb().Select(recipeCommentColumns...).From("recipe_comments").
		Where(sq.Eq{"recipe_id": ids}).OrderBy("created_at", "id").QueryContext(ctx)
	if err != nil {
		return nil, wrap("load recipe comments", err)
	}
	defer rows.Close()

	out := make(map[string][]models.RecipeComment)
	for rows.Next() {
		c, err := scanRecipeComment(rows)
		if err != nil {
			return nil, wrap("scan recipe comment", err)
		}
		out[c.RecipeID] = append(out[c.RecipeID], *c)
	}
	return out, rows.Err()
}

// ToggleRecipeLike flips the like of userID and reports whether it is now set.
func (s *Store) ToggleRecipeLike(ctx context.Context, recipeID, userID string, at time.Time) (bool, error) {
	var liked bool
	err := s.inTx(ctx, func(tx *Store) error {
		res, err := tx.sb().Delete("recipe_likes").
			Where(sq.Eq{"recipe_id": recipeID, "user_id": userID}).ExecContext(ctx)
		if err != nil {
			return wrap("unlike recipe", err)
		}
		if rowsAffected(res) > 0 {
			return nil
		}
		if _, err := tx.sb().Insert("recipe_likes").
			Columns("recipe_id", "user_id", "created_at").
			Values(recipeID, userID, utc(at)).ExecContext(ctx); err != nil {
			return wrap("like recipe", err)
		}
		liked = true
		return nil
	})
	return liked, err
}

func (s *Store) AddRecipeComment(ctx context.Context, c *models.RecipeComment) error {
	_, err := s.sb().Insert("recipe_comments").
		Columns(recipeCommentColumns...).
		Values(c.ID, c.RecipeID, c.UserID, c.Text, utc(c.CreatedAt)).
		ExecContext(ctx)
	if err != nil {
		return wrap("add recipe comment", err)
	}
	return nil
}

func (s *Store) GetRecipeComment(ctx context.Context, id string) (*models.RecipeComment, error) {
	row := s.sb().Select(recipeCommentColumns...).From("recipe_comments").Where(sq.Eq{"id": id}).QueryRowContext(ctx)
	c, err := scanRecipeComment(row)
	if err != nil {
		return nil, wrap("get recipe comment", err)
	}
	return c, nil
}

func (s *Store) DeleteRecipeComment(ctx context.Context, id string) error {
	res, err := s.sb().Delete("recipe_comments").Where(sq.Eq{"id": id}).ExecContext(ctx)
	if err != nil {
		return wrap("delete recipe comment", err)
	}
	if rowsAffected(res) == 0 {
		return storage.ErrNotFound
	}
	return nil
}
