// Package userstore is the relay's only persistent resource: a single JSON
// document holding every user and the machines they own. It is loaded once
// at boot, mutated through narrow operations that each rewrite the document
// atomically, and never sharded.
package userstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"remote-relay/internal/model"
	"remote-relay/internal/security"
)

// ErrNotFound is returned by any lookup or mutation naming an unknown user
// or machine.
var ErrNotFound = errors.New("not found")

// Store owns the in-memory user table and the on-disk document backing it.
// Every mutation is serialized by mu and, if a path was configured, written
// through synchronously before the call returns.
type Store struct {
	mu sync.RWMutex

	path  string
	users map[string]*model.User // by user ID, preserves insertion order via order slice
	order []string
}

// legacyUser captures the pre-multi-machine on-disk shape: a single
// top-level agent key hanging directly off the user record instead of a
// Machines list. Seen only during migration on load.
type legacyUser struct {
	ID           string          `json:"id"`
	DisplayName  string          `json:"displayName"`
	PasswordHash string          `json:"passwordHash"`
	Machines     []model.Machine `json:"machines"`
	AgentKey     string          `json:"agentKey,omitempty"`
}

// New loads the document at path, seeding two demo users if it does not yet
// exist. An empty path runs the store purely in memory (used by tests).
func New(path string) (*Store, error) {
	s := &Store{path: path, users: make(map[string]*model.User)}
	if path == "" {
		s.seedDemoUsers()
		return s, nil
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := s.loadFrom(data); err != nil {
			return nil, fmt.Errorf("userstore: parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		s.seedDemoUsers()
		if err := s.persistLocked(); err != nil {
			return nil, fmt.Errorf("userstore: seed write: %w", err)
		}
	default:
		return nil, fmt.Errorf("userstore: read %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) loadFrom(data []byte) error {
	var legacy []legacyUser
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	for _, lu := range legacy {
		u := &model.User{ID: lu.ID, DisplayName: lu.DisplayName, PasswordHash: lu.PasswordHash, Machines: lu.Machines}
		if u.Machines == nil && lu.AgentKey != "" {
			// Migrate a legacy single-machine record into the list form.
			u.Machines = []model.Machine{{ID: "m" + u.ID, Name: "Machine", AgentKey: lu.AgentKey}}
		}
		if u.Machines == nil {
			u.Machines = []model.Machine{}
		}
		s.users[u.ID] = u
		s.order = append(s.order, u.ID)
	}
	return nil
}

func (s *Store) seedDemoUsers() {
	seed := func(id, name string) {
		hash, err := security.HashPassword(id)
		if err != nil {
			panic(err)
		}
		s.users[id] = &model.User{
			ID:           id,
			DisplayName:  name,
			PasswordHash: hash,
			Machines: []model.Machine{
				{ID: uuid.NewString(), Name: name + "'s PC", AgentKey: security.NewToken()},
			},
		}
		s.order = append(s.order, id)
	}
	seed("kingpin", "Kingpin")
	seed("tez", "Tez")
}

// persistLocked writes the whole document atomically (temp file + rename).
// Callers must hold mu for writing.
func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}

	out := make([]model.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.users[id])
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

// AuthenticateByPassword scans every user's verifier in order and returns
// the first match. A password shared by two users is therefore an
// authentication collision; this store sets passwords only when seeding its
// two demo users, whose passwords differ, and has no operation that
// changes one afterwards.
func (s *Store) AuthenticateByPassword(password string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		u := s.users[id]
		if security.VerifyPassword(u.PasswordHash, password) {
			return *u, true
		}
	}
	return model.User{}, false
}

// GetByAgentKey resolves the (User, Machine) pair owning key, if any.
func (s *Store) GetByAgentKey(key string) (model.User, model.Machine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		u := s.users[id]
		for _, m := range u.Machines {
			if m.AgentKey == key {
				return *u, m, true
			}
		}
	}
	return model.User{}, model.Machine{}, false
}

// GetUser returns a copy of the user record, if it exists.
func (s *Store) GetUser(userID string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return model.User{}, false
	}
	return *u, true
}

// GetMachines lists every machine owned by userID.
func (s *Store) GetMachines(userID string) ([]model.Machine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, false
	}
	out := make([]model.Machine, len(u.Machines))
	copy(out, u.Machines)
	return out, true
}

// GetMachine returns one machine owned by userID.
func (s *Store) GetMachine(userID, machineID string) (model.Machine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return model.Machine{}, false
	}
	for _, m := range u.Machines {
		if m.ID == machineID {
			return m, true
		}
	}
	return model.Machine{}, false
}

// AddMachine creates a machine with a fresh ID and agent key.
func (s *Store) AddMachine(userID, name string) (model.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return model.Machine{}, ErrNotFound
	}

	id := fmt.Sprintf("m%d", time.Now().UnixMilli())
	for s.machineIDTakenLocked(id) {
		id = fmt.Sprintf("m%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	}

	m := model.Machine{ID: id, Name: name, AgentKey: security.NewToken()}
	u.Machines = append(u.Machines, m)
	if err := s.persistLocked(); err != nil {
		return model.Machine{}, err
	}
	return m, nil
}

func (s *Store) machineIDTakenLocked(id string) bool {
	for _, u := range s.users {
		for _, m := range u.Machines {
			if m.ID == id {
				return true
			}
		}
	}
	return false
}

// RenameMachine updates a machine's display name.
func (s *Store) RenameMachine(userID, machineID, name string) (model.Machine, error) {
	return s.mutateMachine(userID, machineID, func(m *model.Machine) { m.Name = name })
}

// SetMacAddress sets or clears the MAC address and broadcast IPv4 used for
// Wake-on-LAN. Passing empty strings clears the corresponding field.
func (s *Store) SetMacAddress(userID, machineID, mac, broadcast string) (model.Machine, error) {
	return s.mutateMachine(userID, machineID, func(m *model.Machine) {
		if mac == "" {
			m.MacAddress = nil
		} else {
			m.MacAddress = &mac
		}
		if broadcast == "" {
			m.BroadcastAddress = nil
		} else {
			m.BroadcastAddress = &broadcast
		}
	})
}

func (s *Store) mutateMachine(userID, machineID string, mutate func(*model.Machine)) (model.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return model.Machine{}, ErrNotFound
	}
	for i := range u.Machines {
		if u.Machines[i].ID == machineID {
			mutate(&u.Machines[i])
			if err := s.persistLocked(); err != nil {
				return model.Machine{}, err
			}
			return u.Machines[i], nil
		}
	}
	return model.Machine{}, ErrNotFound
}

// RemoveMachine deletes a machine owned by userID.
func (s *Store) RemoveMachine(userID, machineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	for i := range u.Machines {
		if u.Machines[i].ID == machineID {
			u.Machines = append(u.Machines[:i], u.Machines[i+1:]...)
			return s.persistLocked()
		}
	}
	return ErrNotFound
}
