package tn5250

import (
	"sync"
	"time"
)

// DefaultKeyboardLock is how long a telopt may hold outbound records back
// while it waits for the host to answer a request
const DefaultKeyboardLock = 5 * time.Second

// keyboardLock is a set of named, expiring locks. While any lock is live the
// keyboard queues records instead of writing them. C receives a signal every
// time the last lock is released.
type keyboardLock struct {
	control        sync.Mutex
	locks          map[string]time.Time
	nextExpiryTime time.Time

	timer  *time.Timer
	locked bool
	C      chan struct{}
}

func newKeyboardLock() *keyboardLock {
	lock := &keyboardLock{
		locks: make(map[string]time.Time),
		C:     make(chan struct{}, 1),
	}

	timer := time.AfterFunc(time.Hour, func() {
		lock.control.Lock()
		defer lock.control.Unlock()

		lock.unlock()
	})
	timer.Stop()
	lock.timer = timer

	return lock
}

func (l *keyboardLock) unlock() {
	l.locked = false
	l.nextExpiryTime = time.Time{}

	for name, expiry := range l.locks {
		if !expiry.After(time.Now()) {
			delete(l.locks, name)
		}
	}

	select {
	case l.C <- struct{}{}:
	default:
	}
}

func (l *keyboardLock) newNextExpiry(expiry time.Time) {
	wasWaitingOnTimer := l.timer.Stop()

	if expiry.IsZero() || time.Now().After(expiry) {
		if wasWaitingOnTimer || l.locked {
			l.unlock()
		}

		return
	}

	l.locked = true
	l.nextExpiryTime = expiry
	l.timer.Reset(time.Until(expiry))
}

func (l *keyboardLock) SetLock(lockName string, duration time.Duration) {
	expiry := time.Now().Add(duration)

	l.control.Lock()
	defer l.control.Unlock()

	l.locks[lockName] = expiry

	if expiry.After(l.nextExpiryTime) {
		l.newNextExpiry(expiry)
	}
}

func (l *keyboardLock) ClearLock(lockName string) {
	l.control.Lock()
	defer l.control.Unlock()

	if _, hasLock := l.locks[lockName]; !hasLock {
		return
	}

	delete(l.locks, lockName)

	var newExpiry time.Time
	for _, expiry := range l.locks {
		if expiry.After(newExpiry) {
			newExpiry = expiry
		}
	}

	l.newNextExpiry(newExpiry)
}

func (l *keyboardLock) HasActiveLock(lockName string) bool {
	l.control.Lock()
	defer l.control.Unlock()

	expiry, hasLock := l.locks[lockName]
	if !hasLock {
		return false
	}

	return expiry.After(time.Now())
}

func (l *keyboardLock) IsLocked() bool {
	l.control.Lock()
	defer l.control.Unlock()

	return l.locked
}
