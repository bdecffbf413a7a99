package mind

import (
	"sync"

	"amora-bot/internal/storage"
)

// fifoIndex tracks insertion order for a bounded map. Eviction is strictly
// oldest-inserted-first; reads never promote an entry.
type fifoIndex struct {
	capacity int
	order    []string
}

// noteInsert records a new key and returns the key to evict, if the bound is
// exceeded. Existing keys keep their position.
func (f *fifoIndex) noteInsert(key string, exists bool) (string, bool) {
	if exists {
		return "", false
	}
	f.order = append(f.order, key)
	if f.capacity > 0 && len(f.order) > f.capacity {
		evicted := f.order[0]
		f.order = f.order[1:]
		return evicted, true
	}
	return "", false
}

func (f *fifoIndex) remove(key string) {
	for i, k := range f.order {
		if k == key {
			f.order = append(f.order[:i], f.order[i+1:]...)
			return
		}
	}
}

// SessionCache is the bounded in-memory session mirror. It is a read
// accelerator only: every mutation writes through to the durable store
// before landing here, so eviction needs no flush. Entries are value
// copies; handlers running on separate goroutines never share a mutable
// struct through here.
type SessionCache struct {
	mu      sync.Mutex
	entries map[string]storage.Session
	fifo    fifoIndex
}

func NewSessionCache(capacity int) *SessionCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &SessionCache{
		entries: make(map[string]storage.Session, capacity),
		fifo:    fifoIndex{capacity: capacity},
	}
}

func (c *SessionCache) Get(key string) (storage.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.entries[key]
	return sess, ok
}

func (c *SessionCache) Put(key string, sess storage.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.entries[key]
	c.entries[key] = sess
	if evicted, ok := c.fifo.noteInsert(key, exists); ok {
		delete(c.entries, evicted)
	}
}

func (c *SessionCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.fifo.remove(key)
	}
}

func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
