package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"foodieconnect/models"
	"foodieconnect/services"
	"foodieconnect/utils"
)

func (h *Handler) ListRecipes(c *gin.Context) {
	page, offset, limit := paging(c, 12)
	recipes, total, err := h.svc.Recipes.Search(c.Request.Context(), models.RecipeFilter{Offset: offset, Limit: limit})
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, RecipeListResponse{
		Recipes:     orEmpty(recipes),
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
		Total:       total,
	})
}

func (h *Handler) SearchRecipes(c *gin.Context) {
	page, offset, limit := paging(c, 12)
	filters := ListFilters{
		Search:     c.Query("search"),
		Category:   c.Query("category"),
		Cuisine:    c.Query("cuisine"),
		Difficulty: c.Query("difficulty"),
		MaxPrep:    queryInt(c, "maxPrepTime"),
		Tags:       c.Query("tags"),
		Ingredient: c.Query("ingredient"),
	}
	var tags []string
	for _, t := range strings.Split(filters.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	recipes, total, err := h.svc.Recipes.Search(c.Request.Context(), models.RecipeFilter{
		Search:      filters.Search,
		Category:    filters.Category,
		Cuisine:     filters.Cuisine,
		Difficulty:  filters.Difficulty,
		MaxPrepTime: filters.MaxPrep,
		Tags:        tags,
		Ingredient:  filters.Ingredient,
		Offset:      offset,
		Limit:       limit,
	})
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, RecipeListResponse{
		Recipes:     orEmpty(recipes),
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
		Total:       total,
		Filters:     &filters,
	})
}

func (h *Handler) PopularRecipes(c *gin.Context) {
	recipes, err := h.svc.Recipes.Popular(c.Request.Context())
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, orEmpty(recipes))
}

func (h *Handler) UserRecipes(c *gin.Context) {
	recipes, err := h.svc.Recipes.ByAuthor(c.Request.Context(), c.Param("userId"))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, orEmpty(recipes))
}

func (h *Handler) GroupRecipes(c *gin.Context) {
	recipes, err := h.svc.Recipes.ByGroup(c.Request.Context(), userID(c), c.Param("groupId"))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, orEmpty(recipes))
}

func (h *Handler) GetRecipe(c *gin.Context) {
	recipe, err := h.svc.Recipes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, recipe)
}

func (h *Handler) CreateRecipe(c *gin.Context) {
	var req services.RecipeInput
	if !bind(c, &req) {
		return
	}

	recipe, err := h.svc.Recipes.Create(c.Request.Context(), userID(c), req)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Created(c, recipe)
}

func (h *Handler) UpdateRecipe(c *gin.Context) {
	var req services.RecipeInput
	if !bind(c, &req) {
		return
	}

	recipe, err := h.svc.Recipes.Update(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, recipe)
}

func (h *Handler) DeleteRecipe(c *gin.Context) {
	if err := h.svc.Recipes.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, "Recipe deleted successfully")
}

func (h *Handler) ToggleRecipeLike(c *gin.Context) {
	res, err := h.svc.Recipes.ToggleLike(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, RecipeLikeResponse{Message: res.Message("Recipe"), Likes: res.LikesCount})
}

func (h *Handler) AddRecipeComment(c *gin.Context) {
	var req CommentRequest
	if !bind(c, &req) {
		return
	}

	comments, err := h.svc.Recipes.AddComment(c.Request.Context(), userID(c), c.Param("id"), req.Text)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Created(c, orEmpty(comments))
}

func (h *Handler) DeleteRecipeComment(c *gin.Context) {
	if err := h.svc.Recipes.DeleteComment(c.Request.Context(), userID(c), c.Param("id"), c.Param("commentId")); err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, "Comment deleted successfully")
}
