package utils

import (
	"fmt"
	"sync"
)

// OptionalMutex is a mutex that can be switched off for objects the caller has promised to
// synchronize externally
type OptionalMutex struct {
	Mutex    sync.Mutex
	UseMutex bool
}

func (m *OptionalMutex) Lock() {
	if m.UseMutex {
		m.Mutex.Lock()
	}
}

func (m *OptionalMutex) Unlock() {
	if m.UseMutex {
		m.Mutex.Unlock()
	}
}

type OptionalRWMutex struct {
	Mutex    sync.RWMutex
	UseMutex bool
}

func (m *OptionalRWMutex) Lock() {
	if m.UseMutex {
		m.Mutex.Lock()
	}
}

func (m *OptionalRWMutex) Unlock() {
	if m.UseMutex {
		m.Mutex.Unlock()
	}
}

func (m *OptionalRWMutex) RLock() {
	if m.UseMutex {
		m.Mutex.RLock()
	}
}

func (m *OptionalRWMutex) RUnlock() {
	if m.UseMutex {
		m.Mutex.RUnlock()
	}
}

// ExclusiveGuard detects concurrent use of an object that must only be touched by one goroutine
// at a time. Enter never blocks: if the guard is already held, it panics.
type ExclusiveGuard struct {
	mutex sync.Mutex
	Name  string
}

// Enter acquires the guard for operation, panicking if another goroutine holds it
func (g *ExclusiveGuard) Enter(operation string) {
	if !g.mutex.TryLock() {
		panic(fmt.Sprintf("%s: %s was called while %s was already in use by another caller", g.Name, operation, g.Name))
	}
}

// Exit releases the guard
func (g *ExclusiveGuard) Exit() {
	g.mutex.Unlock()
}

// TryEnter acquires the guard if it is free and reports whether it did
func (g *ExclusiveGuard) TryEnter() bool {
	return g.mutex.TryLock()
}
