package engine

import "sync"

// moduleLocks is a keyed mutex. Operations on one module serialise; operations
// on different modules proceed in parallel. Entries are dropped when the last
// holder or waiter releases them.
type moduleLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newModuleLocks() *moduleLocks {
	return &moduleLocks{entries: make(map[string]*lockEntry)}
}

// lock blocks until id is held and returns the release func.
func (l *moduleLocks) lock(id string) func() {
	l.mu.Lock()
	e, ok := l.entries[id]
	if !ok {
		e = &lockEntry{}
		l.entries[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}

// size reports how many keys are tracked. Used by tests.
func (l *moduleLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
