package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"foodieconnect/utils"
)

const userIDKey = "user_id"

// TokenVerifier resolves an access token to a user id.
type TokenVerifier interface {
	UserID(token string) (string, error)
}

func bearer(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Auth rejects requests without a valid bearer token and stores the caller's
// id on the context.
func Auth(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearer(c)
		if !ok {
			utils.Unauthorized(c, "Not authorized, no token")
			c.Abort()
			return
		}

		userID, err := tokens.UserID(token)
		if err != nil {
			utils.Unauthorized(c, "Not authorized, token failed")
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// OptionalAuth records the caller when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearer(c); ok {
			if userID, err := tokens.UserID(token); err == nil {
				c.Set(userIDKey, userID)
			}
		}
		c.Next()
	}
}

// GetUserID returns the authenticated caller, or "" for anonymous requests.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
