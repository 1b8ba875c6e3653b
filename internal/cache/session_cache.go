package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Cheertaboi/smaphregi/internal/session"
)

type entry struct {
	s       *session.Session
	expires time.Time
}

// SessionCache keeps sessions in process memory. Entries expire ttl after
// their last save.
type SessionCache struct {
	mu    sync.RWMutex
	store map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

func NewSessionCache(ttl time.Duration) *SessionCache {
	return &SessionCache{
		store: make(map[string]entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *SessionCache) Get(_ context.Context, id string) (*session.Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.store[id]
	if !ok || c.now().After(e.expires) {
		return nil, session.ErrNotFound
	}
	return e.s.Clone(), nil
}

func (c *SessionCache) Save(_ context.Context, s *session.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[s.ID] = entry{s: s.Clone(), expires: c.now().Add(c.ttl)}
	return nil
}

func (c *SessionCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, id)
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (c *SessionCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for id, e := range c.store {
		if now.After(e.expires) {
			delete(c.store, id)
			n++
		}
	}
	return n
}
