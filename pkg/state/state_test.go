package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManager_SetGetClear(t *testing.T) {
	m := New()

	require.Equal(t, StateNormal, m.Get(100))

	m.Set(100, StateAwaitingLocalTime)
	require.Equal(t, StateAwaitingLocalTime, m.Get(100))
	require.Equal(t, StateNormal, m.Get(200), "states are per user")

	m.Clear(100)
	require.Equal(t, StateNormal, m.Get(100))
}

func TestManager_Expiry(t *testing.T) {
	m := New()
	m.Set(100, StateAwaitingLocalTime)

	// Age the entry past the expiry window.
	m.mu.Lock()
	s := m.states[100]
	s.since = time.Now().Add(-11 * time.Minute)
	m.states[100] = s
	m.mu.Unlock()

	require.Equal(t, StateNormal, m.Get(100))
	require.Equal(t, StateNormal, m.Get(100), "expired entry stays cleared")
}
