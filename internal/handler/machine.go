package handler

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"remote-relay/internal/model"
	"remote-relay/internal/wol"
)

type MachineHandler struct {
	Deps
}

const ipv4Octet = `(25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)`

var (
	macPattern  = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:\-]){5}[0-9A-Fa-f]{2}$`)
	ipv4Pattern = regexp.MustCompile(`^` + ipv4Octet + `(\.` + ipv4Octet + `){3}$`)
)

func machineJSON(m model.Machine) gin.H {
	return gin.H{
		"id":               m.ID,
		"name":             m.Name,
		"agentKey":         m.AgentKey,
		"macAddress":       m.MacAddress,
		"broadcastAddress": m.BroadcastAddress,
	}
}

func (h *MachineHandler) List(c *gin.Context) {
	machines, ok := h.Users.GetMachines(c.Param("userId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	resp := make([]gin.H, 0, len(machines))
	for _, m := range machines {
		resp = append(resp, machineJSON(m))
	}
	c.JSON(http.StatusOK, gin.H{"machines": resp})
}

type createMachineBody struct {
	Name string `json:"name"`
}

func (h *MachineHandler) Create(c *gin.Context) {
	var body createMachineBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	m, err := h.Users.AddMachine(c.Param("userId"), body.Name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"machine": machineJSON(m)})
}

type renameMachineBody struct {
	Name string `json:"name"`
}

func (h *MachineHandler) Rename(c *gin.Context) {
	var body renameMachineBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	m, err := h.Users.RenameMachine(c.Param("userId"), c.Param("machineId"), body.Name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Machine not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"machine": machineJSON(m)})
}

func (h *MachineHandler) Delete(c *gin.Context) {
	if err := h.Users.RemoveMachine(c.Param("userId"), c.Param("machineId")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Machine not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type setMacBody struct {
	MacAddress       string `json:"macAddress"`
	BroadcastAddress string `json:"broadcastAddress"`
}

func (h *MachineHandler) SetMac(c *gin.Context) {
	var body setMacBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if body.MacAddress != "" && !macPattern.MatchString(body.MacAddress) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid MAC address"})
		return
	}
	if body.BroadcastAddress != "" && !ipv4Pattern.MatchString(body.BroadcastAddress) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid broadcast address"})
		return
	}

	m, err := h.Users.SetMacAddress(c.Param("userId"), c.Param("machineId"), body.MacAddress, body.BroadcastAddress)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Machine not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"machine": machineJSON(m)})
}

// Wake triggers a Wake-on-LAN magic packet for the machine, unless it is
// already connected. Rate limiting is applied by the route's middleware.
func (h *MachineHandler) Wake(c *gin.Context) {
	m, ok := h.Users.GetMachine(c.Param("userId"), c.Param("machineId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Machine not found"})
		return
	}

	if _, connected := h.Registry.Agent(m.AgentKey); connected {
		c.JSON(http.StatusOK, gin.H{"ok": true, "alreadyOnline": true})
		return
	}

	if m.MacAddress == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Machine has no MAC address configured"})
		return
	}
	broadcast := "255.255.255.255"
	if m.BroadcastAddress != nil {
		broadcast = *m.BroadcastAddress
	}

	if err := wol.Send(*m.MacAddress, broadcast); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Wake-on-LAN packet sent to " + *m.MacAddress})
}
