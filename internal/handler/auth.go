package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"remote-relay/internal/middleware"
)

type AuthHandler struct {
	Deps
}

type loginBody struct {
	Password string `json:"password"`
}

// Login verifies a password against every user's verifier and, on
// success, mints a session.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sess, user, ok := h.Auth.Login(body.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":       sess.Token,
		"userId":      user.ID,
		"displayName": user.DisplayName,
	})
}

// Logout deletes the bearer session if present; absence is not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token != "" {
		h.Auth.Logout(token)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Session validates the bearer session and returns the owning user's
// display name.
func (h *AuthHandler) Session(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing session"})
		return
	}
	user, ok := h.Users.GetUser(userID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": user.ID, "displayName": user.DisplayName})
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
