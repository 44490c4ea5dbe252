package handlers

import (
	"github.com/gin-gonic/gin"

	"foodieconnect/utils"
)

func (h *Handler) SendFriendRequest(c *gin.Context) {
	if err := h.svc.Friends.SendRequest(c.Request.Context(), userID(c), c.Param("userId")); err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, "Friend request sent")
}

func (h *Handler) RemoveFriend(c *gin.Context) {
	if err := h.svc.Friends.Remove(c.Request.Context(), userID(c), c.Param("userId")); err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, "Friend removed")
}

func (h *Handler) GetFriends(c *gin.Context) {
	friends, err := h.svc.Friends.Friends(c.Request.Context(), userID(c))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, FriendsResponse{Friends: orEmpty(friends)})
}

func (h *Handler) GetFriendRequests(c *gin.Context) {
	requests, err := h.svc.Friends.Pending(c.Request.Context(), userID(c))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, FriendRequestsResponse{Requests: orEmpty(requests)})
}

func (h *Handler) AcceptFriendRequest(c *gin.Context) {
	if err := h.svc.Friends.Accept(c.Request.Context(), userID(c), c.Param("requestId")); err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, "Friend request accepted")
}

func (h *Handler) RejectFriendRequest(c *gin.Context) {
	if err := h.svc.Friends.Reject(c.Request.Context(), userID(c), c.Param("requestId")); err != nil {
		utils.Error(c, err)
		return
	}
	utils.OK(c, "Friend request rejected")
}
