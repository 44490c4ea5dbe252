// Package handlers is the HTTP boundary: it binds requests, calls services
// and writes one response type per endpoint.
package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"foodieconnect/middleware"
	"foodieconnect/services"
	"foodieconnect/utils"
)

const (
	maxPageSize     = 100
	maxUploadSize   = 50 * 1024 * 1024
	defaultFeedSize = 10
)

// Pinger reports whether the datastore is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc       *services.Services
	db        Pinger
	uploadDir string
}

func New(svc *services.Services, db Pinger, uploadDir string) *Handler {
	return &Handler{svc: svc, db: db, uploadDir: uploadDir}
}

// bind decodes the JSON body into dst, answering 400 on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

// paging reads page and limit from the query string.
func paging(c *gin.Context, def int) (page, offset, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, limit = services.PageBounds(page, limit, def, maxPageSize)
	return page, offset, limit
}

func totalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

// queryBool returns nil when key is absent.
func queryBool(c *gin.Context, key string) *bool {
	v, ok := c.GetQuery(key)
	if !ok || v == "" {
		return nil
	}
	b := v == "true"
	return &b
}

func userID(c *gin.Context) string {
	return middleware.GetUserID(c)
}

// orEmpty keeps empty lists from encoding as null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
