package middleware

import (
	"net/http"
	"strings"

	"shiftboard/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	// UserIDKey gin context key holding the authenticated user id
	UserIDKey = "user_id"

	userIDHeader = "X-User-ID"
)

// AuthMiddleware simple token authentication middleware.
// An empty apiKey disables the check.
func AuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		authHeader = strings.TrimPrefix(authHeader, "Bearer ")

		if authHeader != apiKey {
			logger.WarnCtx(c.Request.Context(), "unauthorized request, invalid API key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "reason": "invalid API key"})
			return
		}

		c.Next()
	}
}

// Identity reads the caller's user id forwarded by the gateway.
// Session handling lives upstream; the engine only needs a stable id.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(userIDHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "reason": "missing " + userIDHeader + " header"})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}
