package bulk

import "sync"

// keyedMutex serializes batches per requester. The platform supports one
// active purchase prompt per requester session; two interleaved batches
// for the same requester would clobber each other's prompts, so mutual
// exclusion is enforced here instead of being assumed from call order.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*lockEntry)}
}

// lock acquires the mutex for a key and returns its release func.
// Entries are reference-counted and dropped when the last holder leaves.
func (k *keyedMutex) lock(key int64) (unlock func()) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
