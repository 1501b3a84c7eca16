package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	Deps

	Started time.Time
}

func (h *HealthHandler) Health(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"uptime":   time.Since(h.Started).Seconds(),
		"sessions": h.Sessions.Count(),
		"agents":   h.Registry.AgentCount(),
		"memory":   gin.H{"allocBytes": mem.Alloc, "sysBytes": mem.Sys},
	})
}
