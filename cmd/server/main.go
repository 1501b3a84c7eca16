package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"remote-relay/internal/auth"
	"remote-relay/internal/config"
	"remote-relay/internal/invitestore"
	"remote-relay/internal/ratelimit"
	"remote-relay/internal/registry"
	"remote-relay/internal/relay"
	"remote-relay/internal/server"
	"remote-relay/internal/sessionstore"
	"remote-relay/internal/userstore"
)

const shutdownDrain = 5 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	gin.SetMode(cfg.GinMode)

	users, err := userstore.New(cfg.UserStorePath)
	if err != nil {
		log.Fatal(err)
	}
	sessions := sessionstore.New()
	invites := invitestore.New()
	reg := registry.New()
	authenticator := &auth.Authenticator{Users: users, Sessions: sessions, Invites: invites}

	stopSweep := make(chan struct{})
	go sessions.RunSweeper(stopSweep)
	defer close(stopSweep)

	router := server.NewRouter(server.Deps{
		Users:         users,
		Sessions:      sessions,
		Invites:       invites,
		Auth:          authenticator,
		Registry:      reg,
		LoginLimiter:  ratelimit.New(cfg.MaxLoginAttempts, time.Duration(cfg.LockoutMinutes)*time.Minute),
		WakeLimiter:   ratelimit.New(5, time.Minute),
		AgentFilesDir: "agent-files",
		Started:       time.Now(),
	})

	srv := server.NewHTTPServer(cfg, router)

	go func() {
		log.Printf("listening on %s", fmt.Sprintf(":%d", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("shutting down: notifying connected sockets")
	shutdownMsg, _ := relay.ShutdownNotice("Server is shutting down")
	reg.BroadcastAll(shutdownMsg)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownDrain)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
}
