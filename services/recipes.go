package services

import (
	"context"
	"net/url"
	"strings"

	"foodieconnect/apperr"
	"foodieconnect/models"
	"foodieconnect/policy"
)

const popularLimit = 10

type RecipeService struct {
	base
}

type RecipeInput struct {
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Category     string              `json:"category"`
	Cuisine      string              `json:"cuisine"`
	Difficulty   string              `json:"difficulty"`
	PrepTime     int                 `json:"prepTime"`
	CookTime     int                 `json:"cookTime"`
	Servings     int                 `json:"servings"`
	Ingredients  []models.Ingredient `json:"ingredients"`
	Instructions []string            `json:"instructions"`
	Images       []string            `json:"images"`
	Tags         []string            `json:"tags"`
	VideoURL     string              `json:"videoUrl"`
}

func (in *RecipeInput) normalize() error {
	var err error
	if in.Title, err = requireText("Recipe title", in.Title, 100); err != nil {
		return err
	}
	if in.Description, err = requireText("Description", in.Description, 1000); err != nil {
		return err
	}
	switch {
	case !models.IsRecipeCategory(in.Category):
		return apperr.Validation("Invalid recipe category")
	case !models.IsCuisine(in.Cuisine):
		return apperr.Validation("Invalid cuisine")
	case !models.IsDifficulty(in.Difficulty):
		return apperr.Validation("Invalid difficulty")
	case in.PrepTime < 0:
		return apperr.Validation("Prep time cannot be negative")
	case in.CookTime < 0:
		return apperr.Validation("Cook time cannot be negative")
	case in.Servings < 1:
		return apperr.Validation("Must serve at least 1 person")
	}

	ingredients := make([]models.Ingredient, 0, len(in.Ingredients))
	for _, ing := range in.Ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		if ing.Name == "" || strings.TrimSpace(ing.Amount) == "" || strings.TrimSpace(ing.Unit) == "" {
			return apperr.Validation("Each ingredient needs a name, amount and unit")
		}
		ingredients = append(ingredients, ing)
	}
	if len(ingredients) == 0 {
		return apperr.Validation("At least one ingredient is required")
	}
	in.Ingredients = ingredients

	in.Instructions = cleanList(in.Instructions)
	if len(in.Instructions) == 0 {
		return apperr.Validation("At least one instruction is required")
	}
	in.Images = cleanList(in.Images)
	in.Tags = cleanList(in.Tags)

	in.VideoURL = strings.TrimSpace(in.VideoURL)
	if in.VideoURL != "" {
		u, err := url.Parse(in.VideoURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return apperr.Validation("Invalid video URL")
		}
	}
	return nil
}

func (in RecipeInput) apply(r *models.Recipe) {
	r.Title = in.Title
	r.Description = in.Description
	r.Category = in.Category
	r.Cuisine = in.Cuisine
	r.Difficulty = in.Difficulty
	r.PrepTime = in.PrepTime
	r.CookTime = in.CookTime
	r.Servings = in.Servings
	r.Ingredients = in.Ingredients
	r.Instructions = in.Instructions
	r.Images = in.Images
	r.Tags = in.Tags
	r.VideoURL = in.VideoURL
}

// Create stores a recipe for authorID. A group admin's recipe is tagged with
// the first group they administer.
func (s *RecipeService) Create(ctx context.Context, authorID string, in RecipeInput) (*models.Recipe, error) {
	author, err := s.actor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	groupID := ""
	if author.Role == models.RoleGroupAdmin {
		groups, err := s.store.AdminGroups(ctx, author.ID)
		if err != nil {
			return nil, translate(err, nil)
		}
		if len(groups) > 0 {
			groupID = groups[0].ID
		}
	}
	return s.create(ctx, author.ID, groupID, in)
}

// CreateInGroup stores a recipe tagged with groupID. The author must be able
// to post in the group.
func (s *RecipeService) CreateInGroup(ctx context.Context, authorID, groupID string, in RecipeInput) (*models.Recipe, error) {
	author, err := s.actor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	g, err := s.group(ctx, s.store, groupID)
	if err != nil {
		return nil, err
	}
	if !s.policy.IsAuthorizedForGroup(author, g, policy.ActionPost) {
		return nil, apperr.Forbidden("Only group members can add recipes")
	}
	return s.create(ctx, author.ID, g.ID, in)
}

func (s *RecipeService) create(ctx context.Context, authorID, groupID string, in RecipeInput) (*models.Recipe, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	now := s.now()
	r := &models.Recipe{
		ID:        newID(),
		AuthorID:  authorID,
		GroupID:   groupID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(r)
	if err := s.store.CreateRecipe(ctx, r); err != nil {
		err = translate(err, nil)
		logFailure("create recipe", err, "user_id", authorID)
		return nil, err
	}
	return s.Get(ctx, r.ID)
}

func (s *RecipeService) Get(ctx context.Context, id string) (*models.Recipe, error) {
	r, err := s.store.GetRecipe(ctx, id)
	if err != nil {
		return nil, translate(err, apperr.ErrRecipeNotFound)
	}
	return r, nil
}

// owned loads the recipe and checks actorID may change it.
func (s *RecipeService) owned(ctx context.Context, actorID, id, denied string) (*models.Recipe, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanEditRecipe(actor, r) {
		return nil, apperr.Forbidden(denied)
	}
	return r, nil
}

func (s *RecipeService) Update(ctx context.Context, actorID, id string, in RecipeInput) (*models.Recipe, error) {
	r, err := s.owned(ctx, actorID, id, "Not authorized to update this recipe")
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	in.apply(r)
	r.UpdatedAt = s.now()
	if err := s.store.UpdateRecipe(ctx, r); err != nil {
		err = translate(err, apperr.ErrRecipeNotFound)
		logFailure("update recipe", err, "recipe_id", id)
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *RecipeService) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.owned(ctx, actorID, id, "Not authorized to delete this recipe"); err != nil {
		return err
	}
	if err := s.store.DeleteRecipe(ctx, id); err != nil {
		err = translate(err, apperr.ErrRecipeNotFound)
		logFailure("delete recipe", err, "recipe_id", id)
		return err
	}
	return nil
}

// Search lists recipes matching f. Offset and Limit page the result; the
// second return is the total match count.
func (s *RecipeService) Search(ctx context.Context, f models.RecipeFilter) ([]models.Recipe, int, error) {
	recipes, total, err := s.store.ListRecipes(ctx, f)
	if err != nil {
		return nil, 0, translate(err, nil)
	}
	return recipes, total, nil
}

func (s *RecipeService) Popular(ctx context.Context) ([]models.Recipe, error) {
	recipes, err := s.store.PopularRecipes(ctx, popularLimit)
	if err != nil {
		return nil, translate(err, nil)
	}
	return recipes, nil
}

func (s *RecipeService) ByAuthor(ctx context.Context, authorID string) ([]models.Recipe, error) {
	recipes, _, err := s.Search(ctx, models.RecipeFilter{AuthorID: authorID})
	return recipes, err
}

// ByGroup lists the recipes tagged with groupID. A private group's recipes
// are only shown to members; viewerID may be empty for anonymous callers.
func (s *RecipeService) ByGroup(ctx context.Context, viewerID, groupID string) ([]models.Recipe, error) {
	g, err := s.group(ctx, s.store, groupID)
	if err != nil {
		return nil, err
	}
	if g.IsPrivate {
		var viewer *models.User
		if viewerID != "" {
			if viewer, err = s.actor(ctx, viewerID); err != nil {
				return nil, err
			}
		}
		if !s.policy.IsAuthorizedForGroup(viewer, g, policy.ActionView) {
			return nil, apperr.ErrPrivateGroup
		}
	}
	recipes, _, err := s.Search(ctx, models.RecipeFilter{GroupID: g.ID})
	return recipes, err
}

func (s *RecipeService) ToggleLike(ctx context.Context, userID, id string) (*LikeResult, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	liked, err := s.store.ToggleRecipeLike(ctx, id, userID, s.now())
	if err != nil {
		return nil, translate(err, apperr.ErrRecipeNotFound)
	}
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Liked: liked, LikesCount: len(r.Likes)}, nil
}

// AddComment appends a comment and returns the recipe's full comment list.
func (s *RecipeService) AddComment(ctx context.Context, userID, id, text string) ([]models.RecipeComment, error) {
	text, err := requireText("Comment", text, 500)
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	c := &models.RecipeComment{
		ID:        newID(),
		RecipeID:  id,
		UserID:    userID,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.store.AddRecipeComment(ctx, c); err != nil {
		return nil, translate(err, apperr.ErrRecipeNotFound)
	}
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.Comments, nil
}

// DeleteComment removes a comment. Only its author may do so.
func (s *RecipeService) DeleteComment(ctx context.Context, userID, id, commentID string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	c, err := s.store.GetRecipeComment(ctx, commentID)
	if err != nil {
		return translate(err, apperr.ErrCommentNotFound)
	}
	if c.RecipeID != id {
		return apperr.ErrCommentNotFound
	}
	if !policy.IsOwner(userID, c.UserID) {
		return apperr.Forbidden("Not authorized to delete this comment")
	}
	return translate(s.store.DeleteRecipeComment(ctx, c.ID), apperr.ErrCommentNotFound)
}
