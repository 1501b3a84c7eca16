package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"remote-relay/internal/model"
)

type InviteHandler struct {
	Deps
}

// Create issues a viewer-access invite scoped to one (user, machine) pair.
func (h *InviteHandler) Create(c *gin.Context) {
	userID, machineID := c.Param("userId"), c.Param("machineId")

	user, ok := h.Users.GetUser(userID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	machine, ok := h.Users.GetMachine(userID, machineID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Machine not found"})
		return
	}

	inv := h.Invites.Create(userID, machineID, user.DisplayName, machine.Name)
	c.JSON(http.StatusCreated, gin.H{"token": inv.Token, "expiresAt": inv.ExpiresAt})
}

// Info is the public endpoint an anonymous viewer hits before presenting
// the invite token on the socket handshake.
func (h *InviteHandler) Info(c *gin.Context) {
	inv, ok := h.Invites.Inspect(c.Param("inviteToken"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid or expired invite link"})
		return
	}
	c.JSON(http.StatusOK, model.InviteInfo{
		DisplayName: inv.DisplayName,
		MachineName: inv.MachineName,
		ExpiresAt:   inv.ExpiresAt,
	})
}

// Revoke deletes an invite owned by userId, if present.
func (h *InviteHandler) Revoke(c *gin.Context) {
	if !h.Invites.Revoke(c.Param("userId"), c.Param("inviteToken")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invite not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
