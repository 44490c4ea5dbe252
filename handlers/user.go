package handlers

import (
	"github.com/gin-gonic/gin"

	"foodieconnect/models"
	"foodieconnect/services"
	"foodieconnect/utils"
)

func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.svc.Users.Profile(c.Request.Context(), userID(c))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, profile)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req services.ProfileUpdate
	if !bind(c, &req) {
		return
	}

	profile, err := h.svc.Users.UpdateProfile(c.Request.Context(), userID(c), req)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, profile)
}

func (h *Handler) ListUsers(c *gin.Context) {
	page, offset, limit := paging(c, 20)
	users, total, err := h.svc.Users.List(c.Request.Context(), models.UserFilter{
		Search: c.Query("search"),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, UserListResponse{
		Users:       orEmpty(users),
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
		Total:       total,
	})
}

func (h *Handler) SearchUsers(c *gin.Context) {
	page, offset, limit := paging(c, 20)
	filters := ListFilters{
		Search:     c.Query("search"),
		Location:   c.Query("location"),
		Experience: c.Query("experience"),
	}
	users, total, err := h.svc.Users.List(c.Request.Context(), models.UserFilter{
		Search:     filters.Search,
		Location:   filters.Location,
		Experience: filters.Experience,
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, UserListResponse{
		Users:       orEmpty(users),
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
		Total:       total,
		Filters:     &filters,
	})
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.svc.Users.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, user)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.svc.Users.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, "User deleted successfully")
}

func (h *Handler) AddFavorite(c *gin.Context) {
	if err := h.svc.Users.AddFavorite(c.Request.Context(), userID(c), c.Param("recipeId")); err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, "Recipe added to favorites")
}

func (h *Handler) RemoveFavorite(c *gin.Context) {
	if err := h.svc.Users.RemoveFavorite(c.Request.Context(), userID(c), c.Param("recipeId")); err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, "Recipe removed from favorites")
}
