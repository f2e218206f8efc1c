package store

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/blevesearch/bleve/v2"

	"github.com/Aman-CERP/amanmcp/internal/offset"
	"github.com/Aman-CERP/amanmcp/internal/postings"
	"github.com/Aman-CERP/amanmcp/internal/visibility"
)

// OffsetIndex assigns every document in a BleveBM25Index a disjoint
// slot in the gcl core's global token-offset space, so the core's
// posting lists and containment operator can address Bleve-indexed
// documents the same way they address any other container (spec §3:
// "gaps between documents are reserved so each document begins at a
// multiple of Granularity"). It is rebuilt whenever the set of
// document IDs changes; callers needing a live view should rebuild it
// after every Index/Delete batch.
type OffsetIndex struct {
	ids    []string
	starts []offset.Offset
	slot   map[string]int
	slotSz offset.Offset
}

// BuildOffsetIndex enumerates every document currently in idx and
// assigns it a fixed-width slot of slotSize offsets, in ascending ID
// order so the mapping is stable across rebuilds that don't add or
// remove documents. slotSize of 0 falls back to offset.Granularity.
func BuildOffsetIndex(idx *BleveBM25Index, slotSize int64) (*OffsetIndex, error) {
	ids, err := idx.AllIDs()
	if err != nil {
		return nil, fmt.Errorf("listing document ids: %w", err)
	}
	sort.Strings(ids)

	sz := offset.Offset(slotSize)
	if sz <= 0 {
		sz = offset.Granularity
	}

	oi := &OffsetIndex{
		ids:    ids,
		starts: make([]offset.Offset, len(ids)),
		slot:   make(map[string]int, len(ids)),
		slotSz: sz,
	}
	for i, id := range ids {
		oi.starts[i] = offset.Offset(i) * sz
		oi.slot[id] = i
	}
	return oi, nil
}

// List implements querydriver.Container: one extent per document, the
// candidate set a query driver ranks against.
func (oi *OffsetIndex) List() postings.List {
	starts := make([]offset.Offset, len(oi.ids))
	ends := make([]offset.Offset, len(oi.ids))
	for i, s := range oi.starts {
		starts[i] = s
		ends[i] = s + oi.slotSz - 1
	}
	return postings.NewArray(starts, ends)
}

// Fingerprint identifies this document-set/ordering for stats.Cache's
// keying: it changes whenever the document count or any ID changes.
func (oi *OffsetIndex) Fingerprint() uint64 {
	h := fnv.New64a()
	for _, id := range oi.ids {
		_, _ = h.Write([]byte(id))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// DocCount returns (N, totalTokenLength) for stats.Cache.Get's build
// function: every document is given the same Granularity-wide budget,
// since the underlying Bleve index doesn't expose per-document token
// counts through the search API this resolver uses.
func (oi *OffsetIndex) DocCount() (int64, int64) {
	n := int64(len(oi.ids))
	return n, n * int64(oi.slotSz)
}

// FullVisibility returns a visibility.Table covering every document's
// slot, for use as a security.Resolver's fullSet in God-context
// offline tooling (the CLI's query/explain commands, which have no
// multi-principal session to scope to).
func (oi *OffsetIndex) FullVisibility() *visibility.Table {
	if len(oi.ids) == 0 {
		return visibility.NewTable(nil)
	}
	span := int64(len(oi.ids)) * int64(oi.slotSz)
	return visibility.NewTable([]visibility.Range{
		{FileID: 0, StartOffset: 0, TokenCount: offset.Offset(span)},
	})
}

// DocIDFor maps an offset back to the document ID owning it, for
// presenting ranked results as document identifiers rather than raw
// offsets.
func (oi *OffsetIndex) DocIDFor(p offset.Offset) (string, bool) {
	i := sort.Search(len(oi.starts), func(i int) bool { return oi.starts[i] > p }) - 1
	if i < 0 || i >= len(oi.ids) {
		return "", false
	}
	if p >= oi.starts[i]+oi.slotSz {
		return "", false
	}
	return oi.ids[i], true
}

// BleveTermResolver adapts a BleveBM25Index into the query driver's
// TermResolver: resolving a term means asking Bleve for every document
// containing it (with token locations), and projecting each location
// into that document's slot of the global offset space.
//
// This is a document-level resolver: it returns one posting per
// occurrence position Bleve reports, which Sequence/proximity can use
// for phrase and adjacency queries, but it does not carry Bleve's own
// BM25 score — ranking is still entirely the gcl ranker's job.
type BleveTermResolver struct {
	Index   *BleveBM25Index
	Offsets *OffsetIndex
}

// Resolve implements querydriver.TermResolver.
func (r *BleveTermResolver) Resolve(ctx context.Context, term string) (postings.List, int64, error) {
	q := bleve.NewTermQuery(term)
	q.SetField("content")

	req := bleve.NewSearchRequest(q)
	req.Size = len(r.Offsets.ids)
	if req.Size == 0 {
		req.Size = 1
	}
	req.IncludeLocations = true

	r.Index.mu.RLock()
	if r.Index.closed {
		r.Index.mu.RUnlock()
		return nil, 0, fmt.Errorf("resolving term %q: index is closed", term)
	}
	result, err := r.Index.index.SearchInContext(ctx, req)
	r.Index.mu.RUnlock()
	if err != nil {
		return nil, 0, fmt.Errorf("resolving term %q: %w", term, err)
	}

	var positions []offset.Offset
	for _, hit := range result.Hits {
		slot, ok := r.Offsets.slot[hit.ID]
		if !ok {
			continue
		}
		docStart := r.Offsets.starts[slot]
		locs := hit.Locations["content"][term]
		for _, loc := range locs {
			p := docStart + offset.Offset(loc.Pos)
			if p >= docStart+r.Offsets.slotSz {
				// A document with more tokens than the slot can
				// address overflows it; drop positions beyond it
				// rather than collide with the next document's slot.
				continue
			}
			positions = append(positions, p)
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	positions = dedupeSorted(positions)

	return postings.NewArray(positions, append([]offset.Offset{}, positions...)), int64(len(result.Hits)), nil
}

func dedupeSorted(xs []offset.Offset) []offset.Offset {
	if len(xs) == 0 {
		return xs
	}
	out := xs[:1]
	for _, x := range xs[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
