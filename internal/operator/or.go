package operator

import (
	"container/heap"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/Aman-CERP/amanmcp/internal/offset"
	"github.com/Aman-CERP/amanmcp/internal/postings"
)

// orLinearThreshold is the arity at or below which the directional
// point queries use a plain linear scan (spec §4.3: "for ≤ 4
// children"). NextN and Count switch to the N-way heap merge above
// this threshold regardless, since those operations stream through
// every child rather than touching one point.
const orLinearThreshold = 4

// orPreviewSize is the number of extents each child's preview buffer
// holds before it needs a refill from the underlying list.
const orPreviewSize = 256

// Or unions N children. Point queries below orLinearThreshold children
// use a linear scan; NextN/Count always use an N-way min-heap merge
// over per-child preview buffers once there is more than one child,
// since that is the only form that scales to wide fan-outs without
// falling back to a rescan.
type Or struct {
	Children []postings.List
}

func (o *Or) FirstStartBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	var best offset.Extent
	found := false
	for _, c := range o.Children {
		e, ok, err := c.FirstStartBiggerEq(p)
		if err != nil {
			return offset.Extent{}, false, err
		}
		if !ok {
			continue
		}
		if !found || e.From < best.From || (e.From == best.From && e.To < best.To) {
			best, found = e, true
		}
	}
	return best, found, nil
}

func (o *Or) FirstEndBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	var best offset.Extent
	found := false
	for _, c := range o.Children {
		e, ok, err := c.FirstEndBiggerEq(p)
		if err != nil {
			return offset.Extent{}, false, err
		}
		if !ok {
			continue
		}
		if !found || e.To < best.To || (e.To == best.To && e.From < best.From) {
			best, found = e, true
		}
	}
	return best, found, nil
}

func (o *Or) LastStartSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	var best offset.Extent
	found := false
	for _, c := range o.Children {
		e, ok, err := c.LastStartSmallerEq(p)
		if err != nil {
			return offset.Extent{}, false, err
		}
		if !ok {
			continue
		}
		if !found || e.From > best.From || (e.From == best.From && e.To > best.To) {
			best, found = e, true
		}
	}
	return best, found, nil
}

func (o *Or) LastEndSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	var best offset.Extent
	found := false
	for _, c := range o.Children {
		e, ok, err := c.LastEndSmallerEq(p)
		if err != nil {
			return offset.Extent{}, false, err
		}
		if !ok {
			continue
		}
		if !found || e.To > best.To || (e.To == best.To && e.From > best.From) {
			best, found = e, true
		}
	}
	return best, found, nil
}

// orMergeItem is one child's position in the N-way merge: a preview
// buffer refilled from the underlying list on exhaustion, never by
// rescanning from the start.
type orMergeItem struct {
	child     postings.List
	to        offset.Offset
	buf       []offset.Extent
	pos       int
	exhausted bool
}

func (it *orMergeItem) head() offset.Extent {
	if !it.exhausted && it.pos < len(it.buf) {
		return it.buf[it.pos]
	}
	return offset.Extent{From: offset.MaxOffset, To: offset.MaxOffset}
}

func (it *orMergeItem) refill(from offset.Offset) error {
	if it.buf == nil {
		it.buf = make([]offset.Extent, orPreviewSize)
	}
	n, err := it.child.NextN(from, it.to, it.buf)
	if err != nil {
		return err
	}
	it.buf = it.buf[:n]
	it.pos = 0
	if n == 0 {
		it.exhausted = true
	}
	return nil
}

type orHeap []*orMergeItem

func (h orHeap) Len() int { return len(h) }
func (h orHeap) Less(i, j int) bool {
	a, b := h[i].head(), h[j].head()
	if a.From != b.From {
		return a.From < b.From
	}
	return a.To < b.To
}
func (h orHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *orHeap) Push(x any)        { *h = append(*h, x.(*orMergeItem)) }
func (h *orHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

func (o *Or) mergeWalk(from, to offset.Offset, visit func(offset.Extent) bool) error {
	items := make([]*orMergeItem, len(o.Children))
	h := &orHeap{}
	for i, c := range o.Children {
		items[i] = &orMergeItem{child: c, to: to}
		if err := items[i].refill(from); err != nil {
			return err
		}
		if !items[i].exhausted {
			heap.Push(h, items[i])
		}
	}
	var lastFrom offset.Offset
	hasLast := false
	for h.Len() > 0 {
		it := heap.Pop(h).(*orMergeItem)
		e := it.head()
		if e.From > to {
			break
		}
		dup := hasLast && e.From == lastFrom
		if !dup {
			if !visit(e) {
				return nil
			}
			lastFrom, hasLast = e.From, true
		}
		it.pos++
		if it.pos >= len(it.buf) && !it.exhausted {
			if err := it.refill(e.From + 1); err != nil {
				return err
			}
		}
		if !it.exhausted {
			heap.Push(h, it)
		}
	}
	return nil
}

func (o *Or) NextN(from, to offset.Offset, out []offset.Extent) (int, error) {
	count := 0
	err := o.mergeWalk(from, to, func(e offset.Extent) bool {
		out[count] = e
		count++
		return count < len(out)
	})
	return count, err
}

func (o *Or) Length() (offset.Offset, error) {
	return o.Count(0, offset.MaxOffset)
}

func (o *Or) Count(from, to offset.Offset) (offset.Offset, error) {
	var n offset.Offset
	err := o.mergeWalk(from, to, func(offset.Extent) bool {
		n++
		return true
	})
	return n, err
}

func (o *Or) GetNth(i offset.Offset) (offset.Extent, bool) {
	var found offset.Extent
	var idx offset.Offset = -1
	_ = o.mergeWalk(0, offset.MaxOffset, func(e offset.Extent) bool {
		idx++
		if idx == i {
			found = e
			return false
		}
		return true
	})
	return found, idx == i
}

func (o *Or) IsSecure() bool {
	for _, c := range o.Children {
		if !c.IsSecure() {
			return false
		}
	}
	return true
}

func (o *Or) IsAlmostSecure() bool {
	for _, c := range o.Children {
		if !c.IsAlmostSecure() {
			return false
		}
	}
	return true
}

func (o *Or) MakeAlmostSecure(visible postings.VisibleSet) postings.List {
	wrapped := make([]postings.List, len(o.Children))
	for i, c := range o.Children {
		wrapped[i] = c.MakeAlmostSecure(visible)
	}
	return &Or{Children: wrapped}
}

// shortChildMergeThreshold is the per-child length, in postings, at or
// below which OptimizeShortChildren's point-wise merge pays for itself
// (spec §4.3).
const shortChildMergeThreshold = 32

func (o *Or) Optimize() postings.List {
	for i, c := range o.Children {
		o.Children[i] = c.Optimize()
	}
	if merged, err := OptimizeShortChildren(o.Children, shortChildMergeThreshold); err == nil {
		o.Children = merged
	}
	return o
}

// OptimizeShortChildren implements the OR-postings eager-merge
// optimisation (spec §4.3, grounded on
// extentlist_or_postings.cpp's short-list fast path): children whose
// length is at most shortThreshold are drained, merged, deduplicated
// with a Roaring bitmap, and replaced by a single Array-backed child,
// so the per-step merge cost stops scaling with the number of short
// lists. Children above the threshold, and any whose extents are not
// points (From != To, so they cannot be represented as bitmap bits),
// are left untouched.
func OptimizeShortChildren(children []postings.List, shortThreshold offset.Offset) ([]postings.List, error) {
	var short []postings.List
	var rest []postings.List
	for _, c := range children {
		n, err := c.Length()
		if err != nil {
			return nil, err
		}
		if n > 0 && n <= shortThreshold {
			short = append(short, c)
		} else {
			rest = append(rest, c)
		}
	}
	if len(short) < 2 {
		return children, nil
	}
	bm := roaring64.New()
	pointWise := true
	buf := make([]offset.Extent, orPreviewSize)
	for _, c := range short {
		p := offset.Offset(0)
		for {
			n, err := c.NextN(p, offset.MaxOffset, buf)
			if err != nil {
				return nil, err
			}
			if n == 0 {
				break
			}
			for _, e := range buf[:n] {
				if e.From != e.To {
					pointWise = false
					break
				}
				bm.Add(uint64(e.From))
			}
			if !pointWise {
				break
			}
			p = buf[n-1].From + 1
		}
		if !pointWise {
			break
		}
	}
	if !pointWise {
		// Mixed-width extents can't be deduplicated as bitmap bits
		// without losing To; leave the short lists as ordinary OR
		// children instead of merging them.
		return children, nil
	}
	vals := bm.ToArray()
	merged := make([]offset.Offset, len(vals))
	for i, v := range vals {
		merged[i] = offset.Offset(v)
	}
	out := append([]postings.List{}, rest...)
	out = append(out, postings.NewArray(merged, merged))
	return out, nil
}
