package services

import (
	"context"

	"foodieconnect/apperr"
	"foodieconnect/models"
	"foodieconnect/policy"
)

// PostService manages the discussion inside a group. Only members take part;
// authors and group moderators may delete.
type PostService struct {
	base
	recipes *RecipeService
}

type PostInput struct {
	Content  string   `json:"content"`
	Images   []string `json:"images"`
	RecipeID string   `json:"recipe"`
	// NewRecipe, when set, is created in the group and attached to the post.
	NewRecipe *RecipeInput `json:"newRecipe"`
}

// LikeResult reports the state after a like toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

func (l LikeResult) Message(noun string) string {
	if l.Liked {
		return noun + " liked"
	}
	return noun + " unliked"
}

// member loads the actor and the group and checks the actor may post in it.
func (s *PostService) member(ctx context.Context, actorID, groupID, denied string) (*models.User, *models.Group, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	g, err := s.group(ctx, s.store, groupID)
	if err != nil {
		return nil, nil, err
	}
	if !s.policy.IsAuthorizedForGroup(actor, g, policy.ActionPost) {
		return nil, nil, apperr.Forbidden(denied)
	}
	return actor, g, nil
}

func (s *PostService) post(ctx context.Context, groupID, postID string) (*models.GroupPost, error) {
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, translate(err, apperr.ErrPostNotFound)
	}
	if p.GroupID != groupID {
		return nil, apperr.ErrPostNotFound
	}
	return p, nil
}

func (s *PostService) Create(ctx context.Context, actorID, groupID string, in PostInput) (*models.GroupPost, error) {
	_, g, err := s.member(ctx, actorID, groupID, "Only group members can post")
	if err != nil {
		return nil, err
	}
	content, err := requireText("Content", in.Content, 1000)
	if err != nil {
		return nil, err
	}

	recipeID := in.RecipeID
	if in.NewRecipe != nil {
		r, err := s.recipes.CreateInGroup(ctx, actorID, g.ID, *in.NewRecipe)
		if err != nil {
			return nil, err
		}
		recipeID = r.ID
	} else if recipeID != "" {
		if _, err := s.store.GetRecipe(ctx, recipeID); err != nil {
			return nil, translate(err, apperr.ErrRecipeNotFound)
		}
	}

	p := &models.GroupPost{
		ID:        newID(),
		GroupID:   g.ID,
		AuthorID:  actorID,
		Content:   content,
		Images:    cleanList(in.Images),
		RecipeID:  recipeID,
		CreatedAt: s.now(),
	}
	if err := s.store.CreatePost(ctx, p); err != nil {
		err = translate(err, nil)
		logFailure("create post", err, "group_id", groupID)
		return nil, err
	}
	return s.post(ctx, g.ID, p.ID)
}

func (s *PostService) Delete(ctx context.Context, actorID, groupID, postID string) error {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}
	g, err := s.group(ctx, s.store, groupID)
	if err != nil {
		return err
	}
	p, err := s.post(ctx, groupID, postID)
	if err != nil {
		return err
	}
	if !s.policy.CanModerate(actor, g, p.AuthorID) {
		return apperr.Forbidden("Not authorized to delete this post")
	}
	if err := s.store.DeletePost(ctx, p.ID); err != nil {
		err = translate(err, apperr.ErrPostNotFound)
		logFailure("delete post", err, "post_id", postID)
		return err
	}
	return nil
}

func (s *PostService) ToggleLike(ctx context.Context, actorID, groupID, postID string) (*LikeResult, error) {
	if _, _, err := s.member(ctx, actorID, groupID, "Only group members can like posts"); err != nil {
		return nil, err
	}
	if _, err := s.post(ctx, groupID, postID); err != nil {
		return nil, err
	}
	liked, err := s.store.TogglePostLike(ctx, postID, actorID, s.now())
	if err != nil {
		return nil, translate(err, apperr.ErrPostNotFound)
	}
	p, err := s.post(ctx, groupID, postID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Liked: liked, LikesCount: len(p.Likes)}, nil
}

func (s *PostService) AddComment(ctx context.Context, actorID, groupID, postID, text string) (*models.PostComment, error) {
	if _, _, err := s.member(ctx, actorID, groupID, "Only group members can comment"); err != nil {
		return nil, err
	}
	text, err := requireText("Comment", text, 500)
	if err != nil {
		return nil, err
	}
	if _, err := s.post(ctx, groupID, postID); err != nil {
		return nil, err
	}
	c := &models.PostComment{
		ID:        newID(),
		PostID:    postID,
		UserID:    actorID,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.store.AddPostComment(ctx, c); err != nil {
		return nil, translate(err, apperr.ErrPostNotFound)
	}
	users, err := s.store.UserSummaries(ctx, []string{actorID})
	if err != nil {
		return nil, translate(err, nil)
	}
	c.User = summary(users, actorID)
	return c, nil
}

func (s *PostService) DeleteComment(ctx context.Context, actorID, groupID, postID, commentID string) error {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}
	g, err := s.group(ctx, s.store, groupID)
	if err != nil {
		return err
	}
	if _, err := s.post(ctx, groupID, postID); err != nil {
		return err
	}
	c, err := s.store.GetPostComment(ctx, commentID)
	if err != nil {
		return translate(err, apperr.ErrCommentNotFound)
	}
	if c.PostID != postID {
		return apperr.ErrCommentNotFound
	}
	if !s.policy.CanModerate(actor, g, c.UserID) {
		return apperr.Forbidden("Not authorized to delete this comment")
	}
	return translate(s.store.DeletePostComment(ctx, c.ID), apperr.ErrCommentNotFound)
}
