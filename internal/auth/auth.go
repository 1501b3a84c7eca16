// Package auth resolves raw credentials - a password, a bearer token, an
// agent key, or an invite token - into an Identity. It is the only place
// in the relay that constructs a Role; every other component receives an
// already-resolved Identity and must not infer a role from a raw string.
package auth

import (
	"errors"

	"remote-relay/internal/invitestore"
	"remote-relay/internal/model"
	"remote-relay/internal/sessionstore"
	"remote-relay/internal/userstore"
)

// Role is the closed tagged variant distinguishing the three socket roles.
type Role int

const (
	RoleAgent Role = iota
	RoleViewer
	RoleDashboard
)

func (r Role) String() string {
	switch r {
	case RoleAgent:
		return "agent"
	case RoleViewer:
		return "viewer"
	case RoleDashboard:
		return "dashboard"
	default:
		return "unknown"
	}
}

// Identity is what a resolved socket or HTTP request carries forward.
// MachineID is set for an Agent (its own machine) and, optionally, for a
// Viewer that named one at handshake time or that came in via invite.
type Identity struct {
	Role      Role
	UserID    string
	MachineID string
	AgentKey  string

	// ViewOnly marks an invite-granted viewer: it may watch but the
	// machine CRUD and management endpoints remain owner-only regardless.
	ViewOnly bool
}

// ErrUnauthenticated is returned for any handshake or request that cannot
// be resolved to an Identity - a distinct error kind surfaced as a refusal
// before the connection is ever established.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator is the single entry point translating credentials into
// Identities. It holds no connection state of its own.
type Authenticator struct {
	Users    *userstore.Store
	Sessions *sessionstore.Store
	Invites  *invitestore.Store
}

// Login verifies a password against every user's verifier and, on success,
// mints a session.
func (a *Authenticator) Login(password string) (model.Session, model.User, bool) {
	user, ok := a.Users.AuthenticateByPassword(password)
	if !ok {
		return model.Session{}, model.User{}, false
	}
	return a.Sessions.Create(user.ID), user, true
}

// Logout deletes a session if present; absence is not an error.
func (a *Authenticator) Logout(token string) {
	a.Sessions.Delete(token)
}

// CheckSession validates a bearer token, refreshing its activity clock.
func (a *Authenticator) CheckSession(token string) (model.Session, bool) {
	return a.Sessions.Validate(token)
}

// HandshakeParams carries the opaque, transport-agnostic fields interpreted
// here; see the wire protocol's handshake fields.
type HandshakeParams struct {
	Token       string
	Role        string
	AgentKey    string
	MachineID   string
	InviteToken string
}

// ResolveHandshake turns handshake params into an Identity, or
// ErrUnauthenticated if none of the three credential paths apply.
func (a *Authenticator) ResolveHandshake(p HandshakeParams) (Identity, error) {
	switch {
	case p.Role == "agent":
		return a.resolveAgent(p.AgentKey)
	case p.InviteToken != "":
		return a.resolveInvite(p.InviteToken)
	case p.Token != "":
		return a.resolveSession(p)
	default:
		return Identity{}, ErrUnauthenticated
	}
}

// AgentKeyForMachine resolves the agent key backing a machine owned by
// userID, for the Viewer handshake path.
func (a *Authenticator) AgentKeyForMachine(userID, machineID string) (string, bool) {
	m, ok := a.Users.GetMachine(userID, machineID)
	if !ok {
		return "", false
	}
	return m.AgentKey, true
}

// MachinesForDashboard lists every machine a Dashboard connection should
// receive an initial machine-status snapshot for.
func (a *Authenticator) MachinesForDashboard(userID string) []model.Machine {
	machines, _ := a.Users.GetMachines(userID)
	return machines
}

func (a *Authenticator) resolveAgent(agentKey string) (Identity, error) {
	if agentKey == "" {
		return Identity{}, ErrUnauthenticated
	}
	user, machine, ok := a.Users.GetByAgentKey(agentKey)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	return Identity{Role: RoleAgent, UserID: user.ID, MachineID: machine.ID, AgentKey: machine.AgentKey}, nil
}

func (a *Authenticator) resolveInvite(token string) (Identity, error) {
	inv, ok := a.Invites.Inspect(token)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	return Identity{Role: RoleViewer, UserID: inv.UserID, MachineID: inv.MachineID, ViewOnly: true}, nil
}

func (a *Authenticator) resolveSession(p HandshakeParams) (Identity, error) {
	sess, ok := a.Sessions.Validate(p.Token)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	role := RoleViewer
	if p.Role == "dashboard" {
		role = RoleDashboard
	}
	return Identity{Role: role, UserID: sess.UserID, MachineID: p.MachineID}, nil
}
