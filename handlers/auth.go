package handlers

import (
	"github.com/gin-gonic/gin"

	"foodieconnect/services"
	"foodieconnect/utils"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func authResponse(s *services.Session) AuthResponse {
	return AuthResponse{UserResponse: *s.User, Token: s.Token}
}

func (h *Handler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bind(c, &req) {
		return
	}

	session, err := h.svc.Users.Register(c.Request.Context(), req)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Created(c, authResponse(session))
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Email and password are required")
		return
	}

	session, err := h.svc.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, authResponse(session))
}

func (h *Handler) RefreshToken(c *gin.Context) {
	session, err := h.svc.Users.Refresh(c.Request.Context(), userID(c))
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, authResponse(session))
}
