// Package handler implements the HTTP control plane: login/session,
// machine CRUD, invite management, Wake-on-LAN, agent bootstrap scripts,
// and health.
package handler

import (
	"remote-relay/internal/auth"
	"remote-relay/internal/invitestore"
	"remote-relay/internal/registry"
	"remote-relay/internal/sessionstore"
	"remote-relay/internal/userstore"
)

// Deps is the shared dependency bag every handler in this package is
// constructed from.
type Deps struct {
	Auth     *auth.Authenticator
	Users    *userstore.Store
	Sessions *sessionstore.Store
	Invites  *invitestore.Store
	Registry *registry.Registry
}
