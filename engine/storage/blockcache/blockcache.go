// Package blockcache is a small LRU cache of raw, undecoded page bytes
// sitting in front of the file driver's disk reads. It is independent
// of the transactional read/write sets in engine/storage/pagecache:
// discarding a transaction never implies evicting a block, and a block
// eviction never implies anything about an open transaction. It exists
// purely to avoid re-reading a hot page from disk after a Discard,
// mirroring the role the teacher's buffer_pool LRU plays for InnoDB
// pages, trimmed down to the part this engine actually needs (no
// young/old sublists, no flush list — there is no WAL here to flush
// against).
package blockcache

import (
	"container/list"
	"sync"
)

type entry struct {
	pageNumber int64
	data       []byte
}

// Cache is a fixed-capacity, page-number-keyed LRU of raw page bytes.
type Cache struct {
	mu       sync.Mutex
	capacity int
	items    map[int64]*list.Element
	order    *list.List

	Hits   uint64
	Misses uint64
}

// New creates a cache holding at most capacity pages. capacity <= 0
// disables caching (every Get misses).
func New(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		items:    make(map[int64]*list.Element),
		order:    list.New(),
	}
}

// Get returns a copy of the cached bytes for pageNumber, if present.
func (c *Cache) Get(pageNumber int64) ([]byte, bool) {
	if c.capacity <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[pageNumber]
	if !ok {
		c.Misses++
		return nil, false
	}
	c.order.MoveToFront(elem)
	c.Hits++
	e := elem.Value.(*entry)
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, true
}

// Put inserts or refreshes the cached bytes for pageNumber, evicting the
// least recently used block if the cache is full.
func (c *Cache) Put(pageNumber int64, data []byte) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)

	if elem, ok := c.items[pageNumber]; ok {
		elem.Value.(*entry).data = stored
		c.order.MoveToFront(elem)
		return
	}
	if c.order.Len() >= c.capacity {
		back := c.order.Back()
		if back != nil {
			c.order.Remove(back)
			delete(c.items, back.Value.(*entry).pageNumber)
		}
	}
	elem := c.order.PushFront(&entry{pageNumber: pageNumber, data: stored})
	c.items[pageNumber] = elem
}

// Invalidate drops any cached copy of pageNumber, called on every
// WritePage since the on-disk bytes are about to change underneath it.
func (c *Cache) Invalidate(pageNumber int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[pageNumber]; ok {
		c.order.Remove(elem)
		delete(c.items, pageNumber)
	}
}
