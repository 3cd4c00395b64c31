package engine

import "sync"

// symbolLocks hands out one mutex per symbol so the read-then-append
// critical section serializes across overlapping ticks while distinct
// symbols stay fully concurrent.
type symbolLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

// lock acquires the mutex for symbol and returns its unlock func.
func (l *symbolLocks) lock(symbol string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*sync.Mutex)
	}
	sm, ok := l.m[symbol]
	if !ok {
		sm = &sync.Mutex{}
		l.m[symbol] = sm
	}
	l.mu.Unlock()

	sm.Lock()
	return sm.Unlock
}
