package norah

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds the per-conversation counters. Sessions never share state;
// concurrent calls on one session serialize on its mutex.
type Session struct {
	ID string

	mu       sync.Mutex
	state    SessionState
	messages int
	lastSeen time.Time
}

// SessionStatus is the diagnostic view of a session.
type SessionStatus struct {
	State        SessionState `json:"state"`
	MessageCount int          `json:"message_count"`
}

// NewSession creates an idle session with a fresh id.
func NewSession() *Session {
	return &Session{ID: uuid.NewString(), state: StateIdle}
}

// Reset returns the session to idle with a zero message count (logout).
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.messages = 0
}

// Status returns the current state and message count.
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionStatus{State: s.state, MessageCount: s.messages}
}

func (s *Session) touch(now time.Time) {
	s.lastSeen = now
}

// idleSince reports when the session was last used.
func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
