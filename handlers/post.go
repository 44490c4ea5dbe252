package handlers

import (
	"github.com/gin-gonic/gin"

	"foodieconnect/services"
	"foodieconnect/utils"
)

type CommentRequest struct {
	Text string `json:"text"`
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req services.PostInput
	if !bind(c, &req) {
		return
	}

	post, err := h.svc.Posts.Create(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Created(c, post)
}

func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.svc.Posts.Delete(c.Request.Context(), userID(c), c.Param("id"), c.Param("postId")); err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, "Post deleted successfully")
}

func (h *Handler) TogglePostLike(c *gin.Context) {
	res, err := h.svc.Posts.ToggleLike(c.Request.Context(), userID(c), c.Param("id"), c.Param("postId"))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, PostLikeResponse{
		Message:    res.Message("Post"),
		LikesCount: res.LikesCount,
		IsLiked:    res.Liked,
	})
}

func (h *Handler) AddPostComment(c *gin.Context) {
	var req CommentRequest
	if !bind(c, &req) {
		return
	}

	comment, err := h.svc.Posts.AddComment(c.Request.Context(), userID(c), c.Param("id"), c.Param("postId"), req.Text)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Created(c, CommentResponse{Message: "Comment added successfully", Comment: comment})
}

func (h *Handler) DeletePostComment(c *gin.Context) {
	err := h.svc.Posts.DeleteComment(c.Request.Context(), userID(c), c.Param("id"), c.Param("postId"), c.Param("commentId"))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, "Comment deleted successfully")
}

func (h *Handler) CreateGroupRecipe(c *gin.Context) {
	var req services.RecipeInput
	if !bind(c, &req) {
		return
	}

	recipe, err := h.svc.Recipes.CreateInGroup(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Created(c, recipe)
}
