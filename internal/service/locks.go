package service

import "sync"

// userLocks serializes membership transfers per user so two concurrent
// transfers for the same user cannot interleave and leave zero or two
// memberships behind.
type userLocks struct {
	mu    sync.Mutex
	locks map[uint]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[uint]*userLock)}
}

// Lock blocks until the per-user lock is held and returns the unlock func.
func (l *userLocks) Lock(userID uint) func() {
	l.mu.Lock()
	entry := l.locks[userID]
	if entry == nil {
		entry = &userLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
