package middleware

import (
	"strings"

	"keep-notes-api/pkg/auth"
	"keep-notes-api/pkg/response"

	"github.com/gin-gonic/gin"
)

const UserIDKey = "user_id"

// AuthMiddleware resolves the current user id from a Bearer token or
// rejects the request. Handlers downstream can assume a valid session.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// GetCurrentUserID returns the user id resolved by AuthMiddleware.
func GetCurrentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}

	id, ok := userID.(string)
	return id, ok && id != ""
}
