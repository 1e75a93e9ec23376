package application

import "sync"

// keyedMutex serializes writers on the same credential while letting writes
// to different credentials proceed in parallel. Entries are reference
// counted and dropped once the last holder unlocks, so the map does not
// grow with the credential population.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*lockEntry)}
}

func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	entry := k.locks[key]
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}
