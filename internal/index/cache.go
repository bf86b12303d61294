package index

import (
	"sync"

	"github.com/interviewvault/vault/internal/log"
)

// Cache keys built indexes by user ID. It is an explicit service passed to
// consumers, not package state, so tests and multi-tenant callers get
// isolated instances.
//
// Invalidate must be called after any write to a user's applications or
// resume; the next request rebuilds from fresh data. Guest users carry an
// empty user ID and are never cached.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Index
	logger  log.Logger
}

// NewCache creates an empty cache.
func NewCache(logger log.Logger) *Cache {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Cache{
		entries: make(map[string]*Index),
		logger:  logger,
	}
}

// Get returns the cached index for a user, if present.
func (c *Cache) Get(userID string) (*Index, bool) {
	if userID == "" {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.entries[userID]
	return idx, ok
}

// Put stores a built index for a user. Empty user IDs (guests) are
// silently dropped.
func (c *Cache) Put(userID string, idx *Index) {
	if userID == "" || idx == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = idx
	c.logger.Debug("cached user index", "user_id", userID, "chunks", idx.Len())
}

// Invalidate drops a user's cached index. Safe to call when absent.
func (c *Cache) Invalidate(userID string) {
	if userID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[userID]; ok {
		delete(c.entries, userID)
		c.logger.Debug("invalidated user index", "user_id", userID)
	}
}

// Len returns the number of cached indexes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
