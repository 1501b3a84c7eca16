package auth

import (
	"testing"

	"remote-relay/internal/invitestore"
	"remote-relay/internal/sessionstore"
	"remote-relay/internal/userstore"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	users, err := userstore.New("")
	if err != nil {
		t.Fatalf("userstore.New: %v", err)
	}
	return &Authenticator{Users: users, Sessions: sessionstore.New(), Invites: invitestore.New()}
}

func TestLogin_Success(t *testing.T) {
	a := newTestAuthenticator(t)
	sess, user, ok := a.Login("kingpin")
	if !ok || sess.UserID != "kingpin" || user.ID != "kingpin" {
		t.Fatalf("unexpected login result: %+v %+v %v", sess, user, ok)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	a := newTestAuthenticator(t)
	if _, _, ok := a.Login("not-a-real-password"); ok {
		t.Fatalf("expected login with wrong password to fail")
	}
}

func TestLogout_ThenCheckSessionFails(t *testing.T) {
	a := newTestAuthenticator(t)
	sess, _, _ := a.Login("kingpin")
	a.Logout(sess.Token)
	if _, ok := a.CheckSession(sess.Token); ok {
		t.Fatalf("expected session to be gone after logout")
	}
}

func TestResolveHandshake_AgentPath(t *testing.T) {
	a := newTestAuthenticator(t)
	m, err := a.Users.AddMachine("kingpin", "Laptop")
	if err != nil {
		t.Fatalf("AddMachine: %v", err)
	}

	id, err := a.ResolveHandshake(HandshakeParams{Role: "agent", AgentKey: m.AgentKey})
	if err != nil {
		t.Fatalf("ResolveHandshake: %v", err)
	}
	if id.Role != RoleAgent || id.UserID != "kingpin" || id.MachineID != m.ID {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestResolveHandshake_AgentPath_UnknownKey(t *testing.T) {
	a := newTestAuthenticator(t)
	if _, err := a.ResolveHandshake(HandshakeParams{Role: "agent", AgentKey: "bogus"}); err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestResolveHandshake_InvitePath(t *testing.T) {
	a := newTestAuthenticator(t)
	m, _ := a.Users.AddMachine("kingpin", "Laptop")
	inv := a.Invites.Create("kingpin", m.ID, "Kingpin", "Laptop")

	id, err := a.ResolveHandshake(HandshakeParams{InviteToken: inv.Token})
	if err != nil {
		t.Fatalf("ResolveHandshake: %v", err)
	}
	if id.Role != RoleViewer || !id.ViewOnly || id.MachineID != m.ID {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestResolveHandshake_InvitePath_UnknownToken(t *testing.T) {
	a := newTestAuthenticator(t)
	if _, err := a.ResolveHandshake(HandshakeParams{InviteToken: "bogus"}); err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated for unknown invite token, got %v", err)
	}
}

func TestResolveHandshake_SessionPath(t *testing.T) {
	a := newTestAuthenticator(t)
	sess, _, _ := a.Login("kingpin")

	id, err := a.ResolveHandshake(HandshakeParams{Token: sess.Token, Role: "viewer", MachineID: "m1"})
	if err != nil {
		t.Fatalf("ResolveHandshake: %v", err)
	}
	if id.Role != RoleViewer || id.UserID != "kingpin" || id.MachineID != "m1" {
		t.Fatalf("unexpected identity: %+v", id)
	}

	id, err = a.ResolveHandshake(HandshakeParams{Token: sess.Token, Role: "dashboard"})
	if err != nil {
		t.Fatalf("ResolveHandshake: %v", err)
	}
	if id.Role != RoleDashboard {
		t.Fatalf("expected dashboard role, got %v", id.Role)
	}
}

func TestResolveHandshake_NoCredentials(t *testing.T) {
	a := newTestAuthenticator(t)
	if _, err := a.ResolveHandshake(HandshakeParams{}); err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAgentKeyForMachine(t *testing.T) {
	a := newTestAuthenticator(t)
	m, _ := a.Users.AddMachine("kingpin", "Laptop")

	key, ok := a.AgentKeyForMachine("kingpin", m.ID)
	if !ok || key != m.AgentKey {
		t.Fatalf("unexpected agent key lookup: %q %v", key, ok)
	}
	if _, ok := a.AgentKeyForMachine("kingpin", "bogus"); ok {
		t.Fatalf("expected lookup of unknown machine to fail")
	}
}

func TestMachinesForDashboard(t *testing.T) {
	a := newTestAuthenticator(t)
	a.Users.AddMachine("kingpin", "Laptop")
	a.Users.AddMachine("kingpin", "Desktop")

	machines := a.MachinesForDashboard("kingpin")
	if len(machines) != 3 {
		t.Fatalf("expected the seeded machine plus two added, got %d", len(machines))
	}
}
