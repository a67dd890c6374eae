package views

import (
	"sync"

	"shiftledger/internal/domain"
)

// Cache memoizes the active index by input identity. Sessions are recomputed
// wholesale by the ledger, so a new snapshot is always a new slice; pointer
// plus length is a sufficient identity check.
type Cache struct {
	mu      sync.Mutex
	lastPtr *domain.Session
	lastLen int
	active  ActiveIndex
}

// Active returns the memoized index for this exact snapshot, rebuilding when
// the snapshot changed.
func (c *Cache) Active(sessions []domain.Session) ActiveIndex {
	var head *domain.Session
	if len(sessions) > 0 {
		head = &sessions[0]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && head == c.lastPtr && len(sessions) == c.lastLen {
		return c.active
	}
	c.active = BuildActiveIndex(sessions)
	c.lastPtr = head
	c.lastLen = len(sessions)
	return c.active
}
