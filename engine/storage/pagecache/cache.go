// Package pagecache implements the two ordered page sets (read, write)
// described in spec.md §3/§4.2: a binary-searched, strictly sorted-by-
// page-number slice per set, with dedup between the two (I1, I2).
package pagecache

import (
	"sort"

	"github.com/zhukovaskychina/rlitedb/engine/storage/pages"
)

const (
	defaultReadCapacity  = 16
	defaultWriteCapacity = 8
)

// Entry is one cached page: its number, its DataType, the decoded
// object, and a RawDebug slot for the raw bytes it was deserialized
// from. Nothing in this module fills RawDebug; the debug-mode
// consistency check in engine/txn compares bytes without storing them.
type Entry struct {
	PageNumber int64
	Type       pages.DataType
	Obj        interface{}
	RawDebug   []byte
}

// Cache holds one open database handle's read and write sets.
type Cache struct {
	Read  []*Entry
	Write []*Entry
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		Read:  make([]*Entry, 0, defaultReadCapacity),
		Write: make([]*Entry, 0, defaultWriteCapacity),
	}
}

// search performs the binary search described in spec.md §4.2 over a
// single sorted set. found reports a hit; index is either the hit's
// position or the sorted insertion point for a miss.
func search(set []*Entry, pageNumber int64) (found bool, index int) {
	index = sort.Search(len(set), func(i int) bool {
		return set[i].PageNumber >= pageNumber
	})
	if index < len(set) && set[index].PageNumber == pageNumber {
		return true, index
	}
	return false, index
}

// SearchWrite and SearchRead expose the per-set binary search so
// callers (the transaction manager) can perform type-mismatch checks
// before trusting a hit.
func (c *Cache) SearchWrite(pageNumber int64) (found bool, index int) {
	return search(c.Write, pageNumber)
}

func (c *Cache) SearchRead(pageNumber int64) (found bool, index int) {
	return search(c.Read, pageNumber)
}

// Lookup checks the write set then the read set, matching spec.md
// §4.4's read() step 1. A type mismatch on either hit is reported via
// *pages.ErrTypeMismatch.
func (c *Cache) Lookup(typ pages.DataType, pageNumber int64) (obj interface{}, found bool, err error) {
	if found, idx := c.SearchWrite(pageNumber); found {
		e := c.Write[idx]
		if typ != nil && e.Type.Name() != typ.Name() {
			return nil, false, &pages.ErrTypeMismatch{Cached: e.Type.Name(), Requested: typ.Name()}
		}
		return e.Obj, true, nil
	}
	if found, idx := c.SearchRead(pageNumber); found {
		e := c.Read[idx]
		if typ != nil && e.Type.Name() != typ.Name() {
			return nil, false, &pages.ErrTypeMismatch{Cached: e.Type.Name(), Requested: typ.Name()}
		}
		return e.Obj, true, nil
	}
	return nil, false, nil
}

// InsertRead inserts a freshly deserialized page into the read set at
// its sorted position. The caller must have already confirmed the page
// number isn't present (rl_read only calls this after a driver miss).
func (c *Cache) InsertRead(e *Entry) {
	_, idx := c.SearchRead(e.PageNumber)
	c.Read = insertAt(c.Read, idx, e)
}

// InsertOrReplaceWrite implements write()'s cache step from spec.md
// §4.4: replace in place if already present, otherwise insert sorted
// and evict any read-set entry for the same page (without destroying
// its object — ownership transfers to the write set).
func (c *Cache) InsertOrReplaceWrite(e *Entry) (evictedRead *Entry) {
	if found, idx := c.SearchWrite(e.PageNumber); found {
		c.Write[idx].Obj = e.Obj
		c.Write[idx].Type = e.Type
		return nil
	}
	_, idx := c.SearchWrite(e.PageNumber)
	c.Write = insertAt(c.Write, idx, e)

	if found, ridx := c.SearchRead(e.PageNumber); found {
		evicted := c.Read[ridx]
		c.Read = removeAt(c.Read, ridx)
		return evicted
	}
	return nil
}

// Delete nulls the object in whichever set holds pageNumber, per
// spec.md §4.4's delete(): the page number is never freed or reused
// this session.
func (c *Cache) Delete(pageNumber int64) (found bool) {
	if found, idx := c.SearchWrite(pageNumber); found {
		c.Write[idx].Obj = nil
		return true
	}
	if found, idx := c.SearchRead(pageNumber); found {
		c.Read[idx].Obj = nil
		return true
	}
	return false
}

// Discard destroys every cached object (via its DataType's Destroy
// hook, when set and the object is non-nil) and resets both sets to
// their default capacity, satisfying P1.
func (c *Cache) Discard(ctx *pages.Context) {
	for _, e := range c.Read {
		destroy(ctx, e)
	}
	for _, e := range c.Write {
		destroy(ctx, e)
	}
	c.Read = make([]*Entry, 0, defaultReadCapacity)
	c.Write = make([]*Entry, 0, defaultWriteCapacity)
}

func destroy(ctx *pages.Context, e *Entry) {
	if e.Obj != nil && e.Type != nil {
		e.Type.Destroy(ctx, e.Obj)
	}
}

func insertAt(set []*Entry, idx int, e *Entry) []*Entry {
	set = append(set, nil)
	copy(set[idx+1:], set[idx:])
	set[idx] = e
	return set
}

func removeAt(set []*Entry, idx int) []*Entry {
	copy(set[idx:], set[idx+1:])
	set[len(set)-1] = nil
	return set[:len(set)-1]
}
