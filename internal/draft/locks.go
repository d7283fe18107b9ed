package draft

import "sync"

// lockTable serializes actions per match id inside one process. A busy
// match is reported to the caller instead of queued.
type lockTable struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newLockTable() *lockTable {
	return &lockTable{held: make(map[string]struct{})}
}

func (t *lockTable) tryLock(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.held[id]; busy {
		return false
	}
	t.held[id] = struct{}{}
	return true
}

func (t *lockTable) unlock(id string) {
	t.mu.Lock()
	delete(t.held, id)
	t.mu.Unlock()
}
