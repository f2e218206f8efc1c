// Package ranker implements the document-at-a-time BM25 scorer that
// turns a set of per-term posting lists plus a container list into a
// ranked top-K list of extents (spec §4.6).
package ranker

import (
	"container/heap"
	"context"
	"math"
	"sort"

	"github.com/Aman-CERP/amanmcp/internal/offset"
	"github.com/Aman-CERP/amanmcp/internal/postings"
	"github.com/Aman-CERP/amanmcp/internal/stats"
)

// termList is the narrow slice of postings.List the ranker needs; kept
// as its own name so heap.go doesn't have to import postings directly
// for the termState field type.
type termList = postings.List

// maxSuckers bounds the size of the suckers list: terms weak enough
// that they're pulled out of the main heap once doing so provably
// cannot change the top-k (spec §4.6's MaxScore-style pruning).
const maxSuckers = 3

// suckerSafetyFactor guards against the cached-impact table and the
// direct K/TF formula disagreeing at the margins: suckers are only
// dropped once their combined maximum contribution, inflated by this
// factor, still can't reach the current top-k floor.
const suckerSafetyFactor = 2.5

// TermInput is one query term: its posting list, a caller-assigned
// weight (1.0 for an unweighted term), and an optional precomputed
// document frequency (0 means "ask the list for its Length").
type TermInput struct {
	Name   string
	List   postings.List
	Weight float64
	DF     int64
}

// ScoredExtent is one ranked result.
type ScoredExtent struct {
	Score float64
	From  offset.Offset
	To    offset.Offset
}

// Options configures a single Rank call.
type Options struct {
	K1, B float64

	// TopK bounds the number of results returned.
	TopK int

	// UseIDF multiplies each term's weight by ln(N/df). Disabling it
	// is mostly useful for single-term queries and tests that want a
	// score purely proportional to impact.
	UseIDF bool

	// DocumentLevel selects the hot path: true means postings carry a
	// packed (docNumber,encodedTF) value per spec §3's doc-level
	// representation, so term frequency is read directly off the
	// posting with no scan. false falls back to a word-level scan
	// that counts raw occurrences within the container extent.
	DocumentLevel bool

	// UseProximity enables the word-level proximity bonus: for each
	// adjacent pair of distinct-term occurrences within a document,
	// distance d contributes weight/d^ProximityExponent to the score.
	// Only applies when DocumentLevel is false — a document-level
	// posting carries no position, just a packed (doc, TF) pair.
	UseProximity      bool
	ProximityExponent float64
}

// Rank scores every extent of cont (the container list — one extent
// per rankable unit, e.g. one per document) against terms, returning
// the top opts.TopK by descending BM25 score. entry supplies the
// collection statistics (N, avgdl, impact table) the scoring formula
// needs. ctx is checked cooperatively between documents so a caller
// can cancel or time out a query that is scanning a very long tail.
func Rank(ctx context.Context, cont postings.List, terms []TermInput, entry *stats.Entry, opts Options) ([]ScoredExtent, error) {
	if opts.TopK <= 0 {
		opts.TopK = 10
	}

	states := make([]*termState, len(terms))
	for i, t := range terms {
		df := t.DF
		if df <= 0 {
			n, err := t.List.Length()
			if err != nil {
				return nil, err
			}
			df = int64(n)
		}
		idf := 1.0
		if opts.UseIDF && df > 0 && entry.N > 0 {
			idf = math.Log(float64(entry.N) / float64(df))
		}
		w := t.Weight * idf
		if w < 1e-4 {
			w = 1e-4
		}
		st := &termState{
			idx:             i,
			name:            t.Name,
			list:            t.List,
			internalWeight:  w,
			maxContribution: w * (opts.K1 + 1),
		}
		if err := st.advance(-1); err != nil {
			return nil, err
		}
		states[i] = st
	}

	// Flag up to maxSuckers terms as suckers: the weakest contributors
	// by static weight, leaving at least one term driving the scan.
	// They stay in the heap — and so still discover documents matching
	// only a sucker term, and still score exactly — until the top-k
	// floor rises high enough that their combined maximum contribution
	// provably cannot change the outcome (pruneSuckers below); only
	// then are they dropped from the heap for the remainder of the
	// scan, per spec §4.6 step 3.
	sorted := append([]*termState{}, states...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].maxContribution < sorted[j].maxContribution })
	var suckers []*termState
	var suckerBound float64
	for i, st := range sorted {
		if i >= maxSuckers || len(states)-i-1 < 1 {
			break
		}
		st.isSucker = true
		suckers = append(suckers, st)
		suckerBound += st.maxContribution
	}
	suckerBound *= suckerSafetyFactor
	pruned := len(suckers) == 0

	h := &termHeap{}
	heap.Init(h)
	for _, st := range states {
		heap.Push(h, st)
	}

	topK := newTopKHeap(opts.TopK)

	for h.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return topK.Sorted(), err
		}

		headFrom := (*h)[0].head()
		if headFrom >= offset.MaxOffset {
			break
		}

		docExtent, ok, err := cont.FirstEndBiggerEq(headFrom)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		score, err := collectDoc(h, docExtent, entry, opts)
		if err != nil {
			return nil, err
		}

		topK.Offer(ScoredExtent{Score: score, From: docExtent.From, To: docExtent.To})

		if !pruned && topK.Full() && suckerBound < topK.Min() {
			removeSuckers(h, suckers)
			pruned = true
		}
	}

	return topK.Sorted(), nil
}

// collectDoc pops every heap term whose current posting falls within
// docExtent, accumulates their weighted impact contribution, and
// re-pushes each with its cursor advanced past the consumed posting
// (the COLLECT_DOC state of spec §4.6's state machine).
func collectDoc(h *termHeap, docExtent offset.Extent, entry *stats.Entry, opts Options) (float64, error) {
	dl := int64(docExtent.Len())
	score := 0.0
	var occs []termOcc
	for h.Len() > 0 {
		top := (*h)[0]
		fr := top.head()
		if fr < docExtent.From || fr > docExtent.To {
			break
		}
		st := heap.Pop(h).(*termState)

		var tfCode uint32
		if opts.DocumentLevel {
			tfCode = uint32(st.cur.From) & offset.MaxEncodedTF
		} else {
			positions, err := collectPositions(st.list, docExtent)
			if err != nil {
				return 0, err
			}
			tfCode = offset.EncodeTF(uint32(len(positions)))
			if opts.UseProximity {
				for _, p := range positions {
					occs = append(occs, termOcc{pos: p, term: st.idx, weight: st.internalWeight})
				}
			}
		}
		score += st.internalWeight * entry.ImpactAt(dl, tfCode)

		if err := st.advance(docExtent.To); err != nil {
			return 0, err
		}
		heap.Push(h, st)
	}
	if opts.UseProximity && len(occs) > 1 {
		q := opts.ProximityExponent
		if q <= 0 {
			q = 1.5
		}
		score += proximityBonus(occs, q)
	}
	return score, nil
}

// termOcc is one term occurrence within a document, used only by the
// word-level proximity bonus.
type termOcc struct {
	pos    offset.Offset
	term   int
	weight float64
}

// proximityBonus implements spec §4.6's word-level proximity scoring:
// for each adjacent pair of distinct-term occurrences (by position)
// distance d contributes the pair's average weight / d^q. Occurrences
// at identical positions are folded into one effective term (no
// proximity contribution between them, matching the spec's "clamped
// so identical positions fold terms into a single effective term").
func proximityBonus(occs []termOcc, q float64) float64 {
	sort.Slice(occs, func(i, j int) bool { return occs[i].pos < occs[j].pos })
	total := 0.0
	for i := 1; i < len(occs); i++ {
		a, b := occs[i-1], occs[i]
		if a.term == b.term {
			continue
		}
		d := b.pos - a.pos
		if d <= 0 {
			continue
		}
		total += (a.weight + b.weight) / 2 / math.Pow(float64(d), q)
	}
	return total
}

// collectPositions gathers every start offset of l's extents within
// docExtent via NextN in batches, used by the word-level scoring path
// where term frequency isn't packed into the posting itself.
func collectPositions(l postings.List, docExtent offset.Extent) ([]offset.Offset, error) {
	const batch = 64
	buf := make([]offset.Extent, batch)
	var positions []offset.Offset
	from := docExtent.From
	for {
		n, err := l.NextN(from, docExtent.To, buf)
		if err != nil {
			return nil, err
		}
		for _, e := range buf[:n] {
			positions = append(positions, e.From)
		}
		if n < batch {
			return positions, nil
		}
		from = buf[n-1].From + 1
	}
}
