package state

import (
	"sync"
	"time"
)

// State represents a short-lived conversation state for a user
type State string

const (
	// StateNormal is the default state
	StateNormal State = "normal"
	// StateAwaitingLocalTime means the next plain message from the user is
	// read as their current local time for timezone calibration
	StateAwaitingLocalTime State = "awaiting_local_time"
)

// expiry after which a pending state falls back to normal, so a user who
// never answers the onboarding prompt is not stuck in it
const expiry = 10 * time.Minute

type userState struct {
	state State
	since time.Time
}

// Manager tracks per-user conversation states
type Manager struct {
	mu     sync.Mutex
	states map[int64]userState
}

// New creates a new state manager
func New() *Manager {
	return &Manager{
		states: make(map[int64]userState),
	}
}

// Set sets the state for a user
func (m *Manager) Set(userID int64, s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = userState{state: s, since: time.Now()}
}

// Get returns the current state for a user, expiring stale entries
func (m *Manager) Get(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.states[userID]
	if !ok {
		return StateNormal
	}
	if time.Since(s.since) > expiry {
		delete(m.states, userID)
		return StateNormal
	}
	return s.state
}

// Clear resets a user back to the normal state
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
}
