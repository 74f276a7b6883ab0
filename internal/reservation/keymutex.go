package reservation

import (
	"sync"

	"github.com/avros/inventory-reservation/internal/model"
)

// keyMutex provides one mutex per item tuple.  The engine holds the item's
// lock across the read-decide-write sequence in Reserve, which is what
// closes the check-then-act race between two sessions reserving the same
// item.  Entries are reference counted and removed once the last holder
// releases, so the map does not grow with the number of distinct items ever
// seen.
type keyMutex struct {
	mu    sync.Mutex
	locks map[model.Item]*itemLock
}

type itemLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyMutex() *keyMutex {
	return &keyMutex{locks: make(map[model.Item]*itemLock)}
}

// Lock acquires the mutex for item and returns the matching release func.
func (k *keyMutex) Lock(item model.Item) func() {
	k.mu.Lock()
	l, ok := k.locks[item]
	if !ok {
		l = &itemLock{}
		k.locks[item] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, item)
		}
		k.mu.Unlock()
	}
}
