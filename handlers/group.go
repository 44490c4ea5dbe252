package handlers

import (
	"github.com/gin-gonic/gin"

	"foodieconnect/models"
	"foodieconnect/services"
	"foodieconnect/utils"
)

func (h *Handler) CreateGroup(c *gin.Context) {
	var req services.GroupInput
	if !bind(c, &req) {
		return
	}

	group, err := h.svc.Groups.Create(c.Request.Context(), userID(c), req)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Created(c, group)
}

func (h *Handler) ListGroups(c *gin.Context) {
	page, offset, limit := paging(c, 12)
	groups, total, err := h.svc.Groups.List(c.Request.Context(), models.GroupFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, GroupListResponse{
		Groups:      orEmpty(groups),
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
		Total:       total,
	})
}

func (h *Handler) SearchGroups(c *gin.Context) {
	page, offset, limit := paging(c, 12)
	filters := ListFilters{
		Category:   c.Query("category"),
		Search:     c.Query("search"),
		MinMembers: queryInt(c, "minMembers"),
		MaxMembers: queryInt(c, "maxMembers"),
		IsPrivate:  queryBool(c, "isPrivate"),
	}
	groups, total, err := h.svc.Groups.List(c.Request.Context(), models.GroupFilter{
		Category:   filters.Category,
		Search:     filters.Search,
		IsPrivate:  filters.IsPrivate,
		MinMembers: filters.MinMembers,
		MaxMembers: filters.MaxMembers,
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, GroupListResponse{
		Groups:      orEmpty(groups),
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
		Total:       total,
		Filters:     &filters,
	})
}

func (h *Handler) MyGroups(c *gin.Context) {
	groups, err := h.svc.Groups.MyGroups(c.Request.Context(), userID(c))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, orEmpty(groups))
}

func (h *Handler) GetGroup(c *gin.Context) {
	group, err := h.svc.Groups.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, group)
}

func (h *Handler) UpdateGroup(c *gin.Context) {
	var req services.GroupUpdate
	if !bind(c, &req) {
		return
	}

	group, err := h.svc.Groups.Update(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, group)
}

func (h *Handler) DeleteGroup(c *gin.Context) {
	if err := h.svc.Groups.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, services.MsgGroupDeleted)
}

func (h *Handler) JoinGroup(c *gin.Context) {
	msg, err := h.svc.Groups.RequestJoin(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, msg)
}

func (h *Handler) LeaveGroup(c *gin.Context) {
	msg, err := h.svc.Groups.Leave(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, msg)
}

func (h *Handler) PendingRequests(c *gin.Context) {
	requests, err := h.svc.Groups.PendingRequests(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, PendingRequestsResponse{Requests: orEmpty(requests)})
}

func (h *Handler) ApproveRequest(c *gin.Context) {
	if err := h.svc.Groups.Approve(c.Request.Context(), userID(c), c.Param("id"), c.Param("userId")); err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, services.MsgApproved)
}

func (h *Handler) RejectRequest(c *gin.Context) {
	if err := h.svc.Groups.Reject(c.Request.Context(), userID(c), c.Param("id"), c.Param("userId")); err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, services.MsgRejected)
}

func (h *Handler) RemoveMember(c *gin.Context) {
	if err := h.svc.Groups.RemoveMember(c.Request.Context(), userID(c), c.Param("id"), c.Param("userId")); err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, services.MsgMemberRemoved)
}

func (h *Handler) GetFeed(c *gin.Context) {
	page, _, limit := paging(c, defaultFeedSize)
	feed, err := h.svc.Feed.Build(c.Request.Context(), userID(c), page, limit)
	if err != nil {
		utils.Error(c, err)
		return
	}
	feed.Posts = orEmpty(feed.Posts)
	feed.UserGroups = orEmpty(feed.UserGroups)
	utils.Success(c, feed)
}
