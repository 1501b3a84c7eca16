// Package model holds the durable and in-memory entities shared across the
// relay: users and their machines, sessions, and invites.
package model

// User is a stable identity with a salted password verifier and an ordered
// list of Machines it owns. Users are seeded at bootstrap and never deleted.
type User struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"passwordHash"`
	Machines     []Machine `json:"machines"`
}

// Machine belongs to exactly one User. AgentKey is generated once at
// creation and is never rotated; losing it revokes connectivity for that
// machine.
type Machine struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	AgentKey         string  `json:"agentKey"`
	MacAddress       *string `json:"macAddress,omitempty"`
	BroadcastAddress *string `json:"broadcastAddress,omitempty"`
}

// Session is a bearer token minted on login. ExpiresAt is not stored;
// liveness is derived from LastActive plus a fixed TTL at check time.
type Session struct {
	Token      string
	UserID     string
	CreatedAt  int64
	LastActive int64
}

// Invite grants viewer access to a single (User, Machine) pair without a
// login session. DisplayName and MachineName are snapshotted at creation so
// an invite keeps working even if the owner later renames the machine.
type Invite struct {
	Token       string
	UserID      string
	MachineID   string
	DisplayName string
	MachineName string
	CreatedAt   int64
	ExpiresAt   int64
}

// InviteInfo is the read-only view returned to an inspecting client.
type InviteInfo struct {
	DisplayName string `json:"displayName"`
	MachineName string `json:"machineName"`
	ExpiresAt   int64  `json:"expiresAt"`
}
