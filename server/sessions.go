package server

import (
	"sync"
	"time"

	"github.com/jonwraymond/toolhub/dispatch"
)

type sessionEntry struct {
	session  *dispatch.BasicSession
	lastSeen time.Time
}

// Sessions holds prompt state per session ID in memory.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Sessions idle longer than the TTL are dropped by Sweep.
type Sessions struct {
	prompt string
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*sessionEntry
}

// NewSessions creates a store. New sessions start with prompt. A ttl of
// zero keeps sessions until Delete.
func NewSessions(prompt string, ttl time.Duration) *Sessions {
	return &Sessions{
		prompt:  prompt,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*sessionEntry),
	}
}

// Get returns the session for id, creating it on first use.
func (s *Sessions) Get(id string) *dispatch.BasicSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e, ok := s.entries[id]
	if !ok || s.expiredLocked(e, now) {
		e = &sessionEntry{session: dispatch.NewSession(id, s.prompt)}
		s.entries[id] = e
	}
	e.lastSeen = now
	return e.session
}

// Delete forgets id.
func (s *Sessions) Delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// Sweep drops idle sessions and returns how many were removed.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.entries {
		if s.expiredLocked(e, now) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Sessions) expiredLocked(e *sessionEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastSeen) >= s.ttl
}
