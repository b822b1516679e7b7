package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExclusiveGuardPanicsOnContention(t *testing.T) {
	guard := ExclusiveGuard{Name: "command pool"}

	guard.Enter("Reset")
	require.PanicsWithValue(t, "command pool: Allocate was called while command pool was already in use by another caller", func() {
		guard.Enter("Allocate")
	})
	require.False(t, guard.TryEnter())

	guard.Exit()
	require.True(t, guard.TryEnter())
	guard.Exit()
}

func TestOptionalMutexDisabled(t *testing.T) {
	mutex := OptionalMutex{}
	mutex.Lock()
	// Reentry would deadlock if the mutex were in use
	mutex.Lock()
	mutex.Unlock()
	mutex.Unlock()

	rwMutex := OptionalRWMutex{UseMutex: true}
	rwMutex.RLock()
	rwMutex.RLock()
	rwMutex.RUnlock()
	rwMutex.RUnlock()
	rwMutex.Lock()
	rwMutex.Unlock()
}
