// Package visibility implements the per-query visible-extents table
// and the security wrapper used to restrict posting lists to what a
// given principal is allowed to see (spec §4.7).
package visibility

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Aman-CERP/amanmcp/internal/offset"
	"github.com/Aman-CERP/amanmcp/internal/postings"
)

// DocumentType classifies the file a visible range belongs to, carried
// through so callers can filter results by kind without a second pass
// over the index.
type DocumentType int

const (
	DocumentTypeUnknown DocumentType = iota
	DocumentTypeSource
	DocumentTypeConfig
	DocumentTypeDoc
	DocumentTypeTest
)

// Range is one entry of the visible-extents table: the token span
// belonging to a single file that a principal may see.
type Range struct {
	FileID       uint64
	StartOffset  offset.Offset
	TokenCount   offset.Offset
	DocumentType DocumentType
}

func (r Range) endOffset() offset.Offset { return r.StartOffset + r.TokenCount - 1 }

// Table is a sorted (ascending by StartOffset) visible-extents table,
// reference-counted so several concurrent queries can share one
// instance (spec §5: "destruction waits for usageCounter == 0").
// Lookups use the same exponential-then-binary cursor discipline as
// posting lists; a Roaring bitmap of covered offsets accelerates
// ContainsExtent for wide tables without walking the sorted slice.
type Table struct {
	ranges []Range
	starts []offset.Offset
	bitmap *roaring.Bitmap

	mu       sync.Mutex
	refcount int
	cursor   int
}

// NewTable builds a Table from ranges, which must already be sorted
// ascending by StartOffset and pairwise disjoint.
func NewTable(ranges []Range) *Table {
	t := &Table{ranges: ranges, refcount: 1}
	t.starts = make([]offset.Offset, len(ranges))
	bm := roaring.New()
	for i, r := range ranges {
		t.starts[i] = r.StartOffset
		// A table covering the full corpus can have billions of
		// tokens; only small/medium tables are worth indexing into the
		// bitmap bit-for-bit. Large ranges still work correctly via
		// the sorted-slice search below, just without the bitmap
		// fast-path.
		if r.TokenCount <= 1<<20 {
			bm.AddRange(uint64(r.StartOffset), uint64(r.endOffset())+1)
		}
	}
	t.bitmap = bm
	return t
}

// Retain increments the reference count; callers sharing a Table
// across queries must each Retain their own hold and Release it when
// done.
func (t *Table) Retain() {
	t.mu.Lock()
	t.refcount++
	t.mu.Unlock()
}

// Release decrements the reference count, reporting whether it
// reached zero (the caller is then free to discard the table).
func (t *Table) Release() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refcount--
	return t.refcount == 0
}

func (t *Table) rangeFor(p offset.Offset) (Range, bool) {
	t.mu.Lock()
	i := expSearchLEStarts(t.starts, t.cursor, p)
	if i >= 0 {
		t.cursor = i
	}
	t.mu.Unlock()
	if i < 0 {
		return Range{}, false
	}
	r := t.ranges[i]
	if p > r.endOffset() {
		return Range{}, false
	}
	return r, true
}

// ContainsExtent reports whether some single visible range fully
// contains e — the table never merges adjacent ranges, so containment
// must hold within one entry, matching the file-granularity semantics
// of the visibility model.
func (t *Table) ContainsExtent(e offset.Extent) bool {
	r, ok := t.rangeFor(e.From)
	if !ok {
		return false
	}
	return e.To <= r.endOffset()
}

// FileFor returns the file metadata covering offset p, if any.
func (t *Table) FileFor(p offset.Offset) (Range, bool) { return t.rangeFor(p) }

// expSearchLEStarts mirrors postings' internal exponential-then-binary
// search (duplicated here rather than imported to keep Table
// self-contained and avoid exporting postings' internal cursor
// helpers).
func expSearchLEStarts(arr []offset.Offset, start int, p offset.Offset) int {
	n := len(arr)
	if n == 0 {
		return -1
	}
	if start < 0 {
		start = 0
	}
	if start >= n {
		start = n - 1
	}
	if arr[start] > p {
		lo, hi := -1, start
		for lo < hi {
			mid := (lo + hi + 1) / 2
			if mid >= 0 && arr[mid] <= p {
				lo = mid
			} else {
				hi = mid - 1
			}
		}
		return lo
	}
	lo, hi := start, start
	bound := 1
	for hi+1 < n && arr[hi+1] <= p {
		lo = hi + 1
		hi += bound
		if hi >= n {
			hi = n - 1
		}
		bound *= 2
	}
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if arr[mid] <= p {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

var _ postings.VisibleSet = (*Table)(nil)

// Restrict composes the full visible.restrict(L) form of spec §4.7:
// Containment(Security(visible), L, ⊐). It is implemented directly as
// MakeAlmostSecure rather than via operator.Containment, since the
// visibility table is not itself a posting list (it carries per-file
// metadata the Containment operator doesn't need); Table satisfies
// postings.VisibleSet so every list kind's own MakeAlmostSecure
// applies the same per-extent test operator.Containment would.
func Restrict(l postings.List, visible *Table) postings.List {
	return l.MakeAlmostSecure(visible)
}
