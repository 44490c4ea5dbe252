package handlers

import (
	"github.com/gin-gonic/gin"

	"foodieconnect/services"
	"foodieconnect/utils"
)

func (h *Handler) StatsOverview(c *gin.Context) {
	stats, err := h.svc.Stats.Overview(c.Request.Context())
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, stats)
}

func (h *Handler) CuisineDistribution(c *gin.Context) {
	data, err := h.svc.Stats.Cuisines(c.Request.Context())
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, DataResponse[[]services.CuisineShare]{Data: orEmpty(data)})
}

func (h *Handler) GroupCategories(c *gin.Context) {
	data, err := h.svc.Stats.GroupCategories(c.Request.Context())
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, DataResponse[[]services.CategoryCount]{Data: orEmpty(data)})
}

func (h *Handler) PopularRecipeStats(c *gin.Context) {
	data, err := h.svc.Stats.PopularRecipes(c.Request.Context())
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, DataResponse[[]services.RecipeStat]{Data: orEmpty(data)})
}
