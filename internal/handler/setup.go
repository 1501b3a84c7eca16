package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

type SetupHandler struct {
	Deps

	// AgentFilesDir is the directory served verbatim at /agent-files/*path
	// for the bootstrap scripts to curl/iwr down.
	AgentFilesDir string
}

// Setup returns a POSIX shell installer script personalized with the
// requesting host and agent key.
func (h *SetupHandler) Setup(c *gin.Context) {
	agentKey := c.Param("agentKey")
	host := requestOrigin(c)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(posixSetupScript(host, agentKey)))
}

// SetupWin returns the PowerShell equivalent.
func (h *SetupHandler) SetupWin(c *gin.Context) {
	agentKey := c.Param("agentKey")
	host := requestOrigin(c)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(powershellSetupScript(host, agentKey)))
}

// AgentFile serves one file out of AgentFilesDir, rejecting any path that
// would escape it.
func (h *SetupHandler) AgentFile(c *gin.Context) {
	rel := strings.TrimPrefix(c.Param("filepath"), "/")
	clean := filepath.Clean(rel)
	if clean == "." || strings.HasPrefix(clean, "..") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.File(filepath.Join(h.AgentFilesDir, clean))
}

func requestOrigin(c *gin.Context) string {
	scheme := "https"
	if c.Request.TLS == nil {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request.Host)
}

func posixSetupScript(host, agentKey string) string {
	return fmt.Sprintf(`#!/bin/sh
set -e
RELAY_HOST=%q
AGENT_KEY=%q
echo "Installing agent, relay=$RELAY_HOST"
curl -fsSL "$RELAY_HOST/agent-files/install.sh" | AGENT_KEY="$AGENT_KEY" sh
`, host, agentKey)
}

func powershellSetupScript(host, agentKey string) string {
	return fmt.Sprintf(`$RelayHost = %q
$AgentKey = %q
Write-Host "Installing agent, relay=$RelayHost"
Invoke-WebRequest -Uri "$RelayHost/agent-files/install.ps1" -OutFile install.ps1
powershell -ExecutionPolicy Bypass -File install.ps1 -AgentKey $AgentKey
`, host, agentKey)
}
