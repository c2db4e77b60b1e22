package server

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/intcode/vm"
)

// ErrTooManySessions is returned by Create when the session limit is reached.
var ErrTooManySessions = errors.New("too many sessions")

// Session is one hosted processor. The processor must only be touched on
// the VMWorker goroutine.
type Session struct {
	ID      string
	Name    string
	Created time.Time

	proc     *vm.Processor
	lastUsed time.Time
}

// SessionStore manages hosted sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	limit    int
}

// NewSessionStore creates a new session store. A limit of 0 means no limit.
func NewSessionStore(limit int) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		limit:    limit,
	}
}

// Create registers a processor under a new session with an optional name.
func (s *SessionStore) Create(name string, proc *vm.Processor) (*Session, error) {
	now := time.Now()
	session := &Session{
		ID:       uuid.NewString(),
		Name:     name,
		Created:  now,
		proc:     proc,
		lastUsed: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limit > 0 && len(s.sessions) >= s.limit {
		return nil, ErrTooManySessions
	}
	s.sessions[session.ID] = session
	return session, nil
}

// Get retrieves a session by ID and marks it as used.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if ok {
		session.lastUsed = time.Now()
	}
	return session, ok
}

// Destroy removes a session. It reports whether the session existed.
func (s *SessionStore) Destroy(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// List returns all sessions ordered by creation time.
func (s *SessionStore) List() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		list = append(list, session)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Created.Equal(list[j].Created) {
			return list[i].ID < list[j].ID
		}
		return list[i].Created.Before(list[j].Created)
	})
	return list
}

// Len returns the number of sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions that haven't been accessed within the TTL.
func (s *SessionStore) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for id, session := range s.sessions {
		if session.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs periodic TTL sweeps in the background.
// Returns a stop function.
func (s *SessionStore) StartSweeper(interval, ttl time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				if n := s.Sweep(ttl); n > 0 {
					log.Infof("swept %d idle sessions", n)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}
