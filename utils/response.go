package utils

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"foodieconnect/apperr"
)

// MessageResponse is the body of every error and of plain acknowledgements.
type MessageResponse struct {
	Message string `json:"message"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// OK acknowledges with a message body.
func OK(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, MessageResponse{Message: msg})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, MessageResponse{Message: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, MessageResponse{Message: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, MessageResponse{Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, MessageResponse{Message: msg})
}

func InternalError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, MessageResponse{Message: msg})
}

// Error writes err with the status of its apperr kind. Unknown errors are
// logged and reported as a generic server error.
func Error(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		slog.Error("request failed", "error", err, "method", c.Request.Method, "path", c.FullPath())
		InternalError(c, "Server error")
		return
	}
	c.JSON(kind.Status(), MessageResponse{Message: apperr.MessageOf(err)})
}
