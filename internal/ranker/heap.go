package ranker

import (
	"container/heap"

	"github.com/Aman-CERP/amanmcp/internal/offset"
)

// termState tracks one query term's cursor into its posting list
// while the document-at-a-time scan advances; termHeap orders these
// by the offset of the term's next unconsumed posting.
type termState struct {
	idx             int
	name            string
	list            termList
	internalWeight  float64
	maxContribution float64
	isSucker        bool
	heapIdx         int

	cur   offset.Extent
	curOK bool
}

func (t *termState) head() offset.Offset {
	if !t.curOK {
		return offset.MaxOffset
	}
	return t.cur.From
}

func (t *termState) advance(past offset.Offset) error {
	e, ok, err := t.list.FirstStartBiggerEq(past + 1)
	if err != nil {
		return err
	}
	t.cur, t.curOK = e, ok
	return nil
}

// termHeap tracks each element's index via heapIdx (kept current by
// Swap/Push/Pop) so a specific term — not just the root — can be
// pulled out mid-scan via heap.Remove once MaxScore pruning proves it
// safe to drop (spec §4.6 step 3).
type termHeap []*termState

func (h termHeap) Len() int           { return len(h) }
func (h termHeap) Less(i, j int) bool { return h[i].head() < h[j].head() }
func (h termHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIdx = i
	h[j].heapIdx = j
}
func (h *termHeap) Push(x any) {
	st := x.(*termState)
	*h = append(*h, st)
	st.heapIdx = len(*h) - 1
}
func (h *termHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	v.heapIdx = -1
	*h = old[:n-1]
	return v
}

// removeSuckers pulls each still-present sucker term out of h via
// heap.Remove. Safe to call only once the caller has established that
// their combined maximum contribution can no longer affect which
// documents make the top-k (see pruneSuckers).
func removeSuckers(h *termHeap, suckers []*termState) {
	for _, s := range suckers {
		if s.heapIdx >= 0 {
			heap.Remove(h, s.heapIdx)
		}
	}
}

// topKHeap is a size-bounded min-heap of ScoredExtent, kept so the
// smallest accepted score is always at the root: a new candidate is
// worth inserting only if it beats that root (spec §4.6 step 7).
type topKHeap struct {
	items []ScoredExtent
	k     int
}

func newTopKHeap(k int) *topKHeap { return &topKHeap{k: k} }

func (h *topKHeap) Len() int { return len(h.items) }

func (h *topKHeap) Min() float64 {
	if len(h.items) == 0 {
		return -1
	}
	return h.items[0].Score
}

func (h *topKHeap) Full() bool { return len(h.items) >= h.k }

func (h *topKHeap) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[parent].Score <= h.items[i].Score {
			break
		}
		h.items[parent], h.items[i] = h.items[i], h.items[parent]
		i = parent
	}
}

func (h *topKHeap) down(i int) {
	n := len(h.items)
	for {
		l, r := 2*i+1, 2*i+2
		smallest := i
		if l < n && h.items[l].Score < h.items[smallest].Score {
			smallest = l
		}
		if r < n && h.items[r].Score < h.items[smallest].Score {
			smallest = r
		}
		if smallest == i {
			return
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// Offer inserts e if the heap has room, or e beats the current
// minimum, replacing it. Returns whether e was kept.
func (h *topKHeap) Offer(e ScoredExtent) bool {
	if !h.Full() {
		h.items = append(h.items, e)
		h.up(len(h.items) - 1)
		return true
	}
	if e.Score <= h.items[0].Score {
		return false
	}
	h.items[0] = e
	h.down(0)
	return true
}

// Sorted drains the heap into descending-by-score order (ties broken
// by ascending From, per spec §4.6 step 8 / the driver's output
// contract).
func (h *topKHeap) Sorted() []ScoredExtent {
	out := append([]ScoredExtent{}, h.items...)
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Score > out[i].Score || (out[j].Score == out[i].Score && out[j].From < out[i].From) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}
