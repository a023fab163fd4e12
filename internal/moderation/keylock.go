package moderation

import "sync"

// keyedMutex serializes engine operations per (guild, user) pair. Different
// pairs never contend, so there is no global lock around the stores.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Lock blocks until the pair's lock is held and returns the unlock function.
// Entries are reference counted and removed once the last holder releases.
func (k *keyedMutex) Lock(guildID, userID string) func() {
	key := guildID + ":" + userID

	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
