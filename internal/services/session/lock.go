package session

import (
	"sync"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

// keyedMutex serializes work per session id inside one process
type keyedMutex struct {
	mu    sync.Mutex
	locks map[model.SessionID]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[model.SessionID]*refMutex)}
}

// Lock acquires the mutex for id and returns its unlock function
func (k *keyedMutex) Lock(id model.SessionID) func() {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &refMutex{}
		k.locks[id] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
