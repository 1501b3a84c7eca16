package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"remote-relay/internal/auth"
	"remote-relay/internal/handler"
	"remote-relay/internal/invitestore"
	"remote-relay/internal/middleware"
	"remote-relay/internal/ratelimit"
	"remote-relay/internal/registry"
	"remote-relay/internal/relay"
	"remote-relay/internal/sessionstore"
	"remote-relay/internal/userstore"
)

// Deps is the fully-wired component graph a router is built from.
type Deps struct {
	Users         *userstore.Store
	Sessions      *sessionstore.Store
	Invites       *invitestore.Store
	Auth          *auth.Authenticator
	Registry      *registry.Registry
	LoginLimiter  *ratelimit.Limiter
	WakeLimiter   *ratelimit.Limiter
	AgentFilesDir string
	Started       time.Time
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	hdeps := handler.Deps{
		Auth:     deps.Auth,
		Users:    deps.Users,
		Sessions: deps.Sessions,
		Invites:  deps.Invites,
		Registry: deps.Registry,
	}

	authHandler := &handler.AuthHandler{Deps: hdeps}
	machineHandler := &handler.MachineHandler{Deps: hdeps}
	inviteHandler := &handler.InviteHandler{Deps: hdeps}
	setupHandler := &handler.SetupHandler{Deps: hdeps, AgentFilesDir: deps.AgentFilesDir}
	healthHandler := &handler.HealthHandler{Deps: hdeps, Started: deps.Started}

	r.GET("/api/health", healthHandler.Health)
	r.GET("/api/invite-info/:inviteToken", inviteHandler.Info)
	r.GET("/api/setup/:agentKey", setupHandler.Setup)
	r.GET("/api/setup-win/:agentKey", setupHandler.SetupWin)
	r.GET("/agent-files/*filepath", setupHandler.AgentFile)

	r.POST("/api/login", middleware.RateLimitGin(deps.LoginLimiter), authHandler.Login)
	r.POST("/api/logout", authHandler.Logout)

	session := middleware.RequireSession(deps.Auth)
	owner := middleware.RequireOwner()

	r.GET("/api/session", session, authHandler.Session)

	r.GET("/api/machines/:userId", session, owner, machineHandler.List)
	r.POST("/api/machines/:userId", session, owner, machineHandler.Create)
	r.PATCH("/api/machines/:userId/:machineId", session, owner, machineHandler.Rename)
	r.DELETE("/api/machines/:userId/:machineId", session, owner, machineHandler.Delete)
	r.PATCH("/api/machines/:userId/:machineId/mac", session, owner, machineHandler.SetMac)
	r.POST("/api/machines/:userId/:machineId/wake", session, owner, middleware.RateLimitGin(deps.WakeLimiter), machineHandler.Wake)

	r.POST("/api/invites/:userId/:machineId", session, owner, inviteHandler.Create)
	r.DELETE("/api/invites/:userId/:inviteToken", session, owner, inviteHandler.Revoke)

	dispatcher := relay.NewDispatcher(deps.Auth, deps.Registry)
	r.GET("/ws", gin.WrapF(dispatcher.Serve))

	r.NoRoute(func(c *gin.Context) {
		c.Redirect(302, "/")
	})

	return r
}
