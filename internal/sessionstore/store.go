// Package sessionstore is the in-memory token-to-user map backing login
// sessions. Entries live for a fixed inactivity window and are refreshed on
// every successful check.
package sessionstore

import (
	"sync"
	"time"

	"remote-relay/internal/model"
	"remote-relay/internal/security"
)

// TTL is the fixed inactivity window: a session untouched for longer than
// this fails validation on its next use.
const TTL = 24 * time.Hour

// sweepInterval is how often the background sweeper clears stale entries
// that nobody bothered to touch (and therefore nobody lazily expired).
const sweepInterval = 10 * time.Minute

type Store struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	now      func() time.Time
}

func New() *Store {
	return newWithClock(time.Now)
}

func newWithClock(now func() time.Time) *Store {
	return &Store{sessions: make(map[string]*model.Session), now: now}
}

// Create mints a fresh bearer token for userID.
func (s *Store) Create(userID string) model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UnixMilli()
	sess := &model.Session{Token: security.NewToken(), UserID: userID, CreatedAt: now, LastActive: now}
	s.sessions[sess.Token] = sess
	return *sess
}

// Validate refreshes LastActive and returns the session if token is known
// and has not exceeded the inactivity TTL. An expired entry is deleted.
func (s *Store) Validate(token string) (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return model.Session{}, false
	}
	now := s.now()
	if now.Sub(time.UnixMilli(sess.LastActive)) > TTL {
		delete(s.sessions, token)
		return model.Session{}, false
	}
	sess.LastActive = now.UnixMilli()
	return *sess, true
}

// Delete removes a session outright, used by explicit logout.
func (s *Store) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Sweep removes every session whose LastActive predates the TTL. Run
// periodically so sessions nobody ever re-validates don't linger forever.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for token, sess := range s.sessions {
		if now.Sub(time.UnixMilli(sess.LastActive)) > TTL {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// Count returns the number of live sessions, used by the health endpoint.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// RunSweeper starts a background goroutine that calls Sweep every
// sweepInterval until stop is closed.
func (s *Store) RunSweeper(stop <-chan struct{}) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
