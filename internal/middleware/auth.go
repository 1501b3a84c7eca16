package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"remote-relay/internal/auth"
)

const userIDContextKey = "userID"

func UserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Get(userIDContextKey)
	if !ok {
		return "", false
	}
	value, ok := userID.(string)
	return value, ok && value != ""
}

// RequireSession validates the bearer session token and stores the
// resolved user id on the context for handlers and RequireOwner to read.
func RequireSession(a *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing session"})
			c.Abort()
			return
		}

		sess, ok := a.CheckSession(parts[1])
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing session"})
			c.Abort()
			return
		}

		c.Set(userIDContextKey, sess.UserID)
		c.Next()
	}
}

// RequireOwner enforces that the session's user id matches the :userId
// path parameter, regardless of how valid the session token otherwise is.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserIDFromContext(c)
		if !ok || userID != c.Param("userId") {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}
