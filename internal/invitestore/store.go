// Package invitestore holds single-use-capable share tokens granting viewer
// access to one (User, Machine) pair without a login session. Expiry is
// absolute and checked lazily on access; there is no background sweep.
package invitestore

import (
	"sync"
	"time"

	"remote-relay/internal/model"
	"remote-relay/internal/security"
)

// Lifetime is the absolute expiry window from creation.
const Lifetime = 7 * 24 * time.Hour

type Store struct {
	mu      sync.Mutex
	invites map[string]*model.Invite
	now     func() time.Time
}

func New() *Store {
	return newWithClock(time.Now)
}

func newWithClock(now func() time.Time) *Store {
	return &Store{invites: make(map[string]*model.Invite), now: now}
}

// Create mints a token scoped to (userID, machineID), snapshotting the
// owner's display name and the machine's current name.
func (s *Store) Create(userID, machineID, displayName, machineName string) model.Invite {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	inv := &model.Invite{
		Token:       security.NewToken(),
		UserID:      userID,
		MachineID:   machineID,
		DisplayName: displayName,
		MachineName: machineName,
		CreatedAt:   now.UnixMilli(),
		ExpiresAt:   now.Add(Lifetime).UnixMilli(),
	}
	s.invites[inv.Token] = inv
	return *inv
}

// Inspect returns the invite if it exists and has not expired, deleting it
// lazily if it has.
func (s *Store) Inspect(token string) (model.Invite, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLiveLocked(token)
}

func (s *Store) getLiveLocked(token string) (model.Invite, bool) {
	inv, ok := s.invites[token]
	if !ok {
		return model.Invite{}, false
	}
	if s.now().UnixMilli() >= inv.ExpiresAt {
		delete(s.invites, token)
		return model.Invite{}, false
	}
	return *inv, true
}

// Revoke deletes a token, but only if owned by userID.
func (s *Store) Revoke(userID, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invites[token]
	if !ok || inv.UserID != userID {
		return false
	}
	delete(s.invites, token)
	return true
}
