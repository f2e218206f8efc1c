// Package indexcache implements the process-wide fingerprint -> cached
// posting list map (spec §5's "Index cache: single lock for
// lookup/insert; entries are reference-counted so a query holding a
// list survives eviction by other queries"). It wraps a bounded LRU
// rather than the unbounded map the original used, so a long-running
// server's cache can't grow without limit.
package indexcache

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Aman-CERP/amanmcp/internal/postings"
)

// Fingerprint identifies the query subtree (or container) a cached
// list or stats entry was built for; spec §4.5/§4.7 both key their
// caches by it.
type Fingerprint uint64

// Entry wraps a built posting list with a reference count: Retain/
// Release track how many in-flight queries still hold it, so the LRU
// can evict the map slot without invalidating a list a query is mid-
// scan on (the underlying List value is ordinary Go data kept alive by
// whoever's holding a *Entry, independent of refcount bookkeeping).
type Entry struct {
	fp   Fingerprint
	List postings.List

	refcount int32
	evicted  atomic.Bool
}

// Retain increments the entry's reference count. Callers that obtain
// an Entry from Cache.Get must Retain before using it across an
// await point and Release exactly once when done.
func (e *Entry) Retain() { atomic.AddInt32(&e.refcount, 1) }

// Release decrements the reference count. It is safe to call after
// the entry has already been evicted from the cache.
func (e *Entry) Release() { atomic.AddInt32(&e.refcount, -1) }

func (e *Entry) inUse() bool { return atomic.LoadInt32(&e.refcount) > 0 }

// Cache is a bounded, reference-count-aware LRU of Fingerprint ->
// *Entry. Concurrent builds of the same fingerprint are deduplicated
// via singleflight, matching stats.Cache's discipline so the two
// caches behave consistently under load.
type Cache struct {
	mu      sync.Mutex
	lru     *lru.Cache[Fingerprint, *Entry]
	group   singleflight.Group
	pending map[Fingerprint]*Entry // evicted while still in use
}

// DefaultSize is the number of distinct fingerprints kept resident
// when a caller doesn't size the cache explicitly.
const DefaultSize = 4096

// New returns a Cache holding up to size fingerprints. size <= 0 uses
// DefaultSize.
func New(size int) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	c := &Cache{pending: make(map[Fingerprint]*Entry)}
	l, _ := lru.NewWithEvict[Fingerprint, *Entry](size, c.onEvict)
	c.lru = l
	return c
}

// onEvict runs with the LRU's own internal lock held, so it must not
// call back into the Cache; an entry still in use is parked in
// pending until its last Release, rather than being dropped outright.
func (c *Cache) onEvict(fp Fingerprint, e *Entry) {
	if !e.inUse() {
		return
	}
	e.evicted.Store(true)
	c.mu.Lock()
	c.pending[fp] = e
	c.mu.Unlock()
}

// sweepPending drops any pending entry whose last holder has since
// Released it. Called opportunistically from Get/Invalidate rather
// than on a timer, since those are the only places refcounts change
// meaningfully for this cache.
func (c *Cache) sweepPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for fp, e := range c.pending {
		if !e.inUse() {
			delete(c.pending, fp)
		}
	}
}

// Get returns the cached list for fp, Retain-ing it on the caller's
// behalf, building it via build if absent. The returned Entry must be
// Released by the caller when the query that requested it completes.
func (c *Cache) Get(fp Fingerprint, build func() (postings.List, error)) (*Entry, error) {
	c.sweepPending()

	if e, ok := c.lru.Get(fp); ok {
		e.Retain()
		return e, nil
	}

	v, err, _ := c.group.Do(fpKey(fp), func() (any, error) {
		if e, ok := c.lru.Get(fp); ok {
			return e, nil
		}
		list, err := build()
		if err != nil {
			return nil, err
		}
		e := &Entry{fp: fp, List: list}
		c.lru.Add(fp, e)
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	e := v.(*Entry)
	e.Retain()
	return e, nil
}

// Invalidate drops fp from the cache. If an Entry for fp is currently
// in use, it is moved to pending exactly as an LRU eviction would be,
// so existing holders keep a valid reference until they Release.
func (c *Cache) Invalidate(fp Fingerprint) {
	c.lru.Remove(fp) // triggers onEvict, which parks it if still in use
	c.sweepPending()
}

// Len returns the number of fingerprints currently resident (not
// counting entries parked in pending after eviction).
func (c *Cache) Len() int { return c.lru.Len() }

// Pending returns the number of evicted-but-still-in-use entries —
// exposed for tests and diagnostics, not part of the cache contract.
func (c *Cache) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func fpKey(fp Fingerprint) string {
	// A Fingerprint is already a dense 64-bit key; singleflight wants a
	// string, so render it directly rather than via fmt.Sprintf.
	const hextable = "0123456789abcdef"
	var buf [16]byte
	v := uint64(fp)
	for i := 15; i >= 0; i-- {
		buf[i] = hextable[v&0xf]
		v >>= 4
	}
	return string(buf[:])
}
