package ranker

import (
	"container/heap"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amanmcp/internal/offset"
	"github.com/Aman-CERP/amanmcp/internal/postings"
	"github.com/Aman-CERP/amanmcp/internal/stats"
)

func docContainer(bounds ...[2]int64) postings.List {
	starts := make([]offset.Offset, len(bounds))
	ends := make([]offset.Offset, len(bounds))
	for i, b := range bounds {
		starts[i] = offset.Offset(b[0])
		ends[i] = offset.Offset(b[1])
	}
	return postings.NewArray(starts, ends)
}

// docPosting packs a document-level posting the way a real builder
// would: since every document starts at a multiple of the offset
// model's granularity (itself a multiple of 32), docStart>>5<<5 ==
// docStart, so the packed value docStart+encodedTF always falls
// within that document's own real token range — letting the
// container's FirstEndBiggerEq locate the right document directly
// from the packed posting, with no separate doc-number side table.
func docPosting(docStart offset.Offset, rawTF uint32) offset.Offset {
	return offset.PackDocLevel(uint64(docStart)>>5, rawTF)
}

func docLevelTerm(postingsIn ...struct {
	DocStart offset.Offset
	TF       uint32
}) postings.List {
	starts := make([]offset.Offset, len(postingsIn))
	for i, p := range postingsIn {
		starts[i] = docPosting(p.DocStart, p.TF)
	}
	return postings.NewArray(append([]offset.Offset{}, starts...), append([]offset.Offset{}, starts...))
}

func posting(docStart offset.Offset, tf uint32) struct {
	DocStart offset.Offset
	TF       uint32
} {
	return struct {
		DocStart offset.Offset
		TF       uint32
	}{docStart, tf}
}

func TestRankDocumentLevelOrdersByImpact(t *testing.T) {
	cont := docContainer([2]int64{0, 99}, [2]int64{128, 227}, [2]int64{256, 355})

	term := docLevelTerm(
		posting(0, 1),
		posting(128, 10),
		posting(256, 3),
	)

	entry := stats.Build(3, 300, stats.Params{K1: 1.2, B: 0.75})

	res, err := Rank(context.Background(), cont, []TermInput{
		{Name: "hot", List: term, Weight: 1.0},
	}, entry, Options{K1: 1.2, B: 0.75, TopK: 10, DocumentLevel: true})
	require.NoError(t, err)
	require.Len(t, res, 3)

	// Doc at 128 has by far the highest TF and must rank first.
	assert.Equal(t, offset.Offset(128), res[0].From)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
	}
}

func TestRankRespectsTopK(t *testing.T) {
	bounds := make([][2]int64, 0, 20)
	var ps []struct {
		DocStart offset.Offset
		TF       uint32
	}
	for i := int64(0); i < 20; i++ {
		start := i * 128
		bounds = append(bounds, [2]int64{start, start + 99})
		ps = append(ps, posting(offset.Offset(start), uint32(i%7)))
	}
	cont := docContainer(bounds...)
	term := docLevelTerm(ps...)
	entry := stats.Build(20, 2000, stats.Params{K1: 1.2, B: 0.75})

	res, err := Rank(context.Background(), cont, []TermInput{
		{Name: "t", List: term, Weight: 1.0},
	}, entry, Options{K1: 1.2, B: 0.75, TopK: 5, DocumentLevel: true})
	require.NoError(t, err)
	assert.Len(t, res, 5)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
	}
}

func TestRankMultiTermAccumulatesScore(t *testing.T) {
	cont := docContainer([2]int64{0, 99}, [2]int64{128, 227})
	termA := docLevelTerm(posting(0, 5), posting(128, 5))
	termB := docLevelTerm(posting(0, 5)) // only present in the first doc
	entry := stats.Build(2, 200, stats.Params{K1: 1.2, B: 0.75})

	res, err := Rank(context.Background(), cont, []TermInput{
		{Name: "a", List: termA, Weight: 1.0},
		{Name: "b", List: termB, Weight: 1.0},
	}, entry, Options{K1: 1.2, B: 0.75, TopK: 10, DocumentLevel: true})
	require.NoError(t, err)
	require.Len(t, res, 2)
	// The first doc matches both terms, the second only one: it must outscore.
	assert.Equal(t, offset.Offset(0), res[0].From)
	assert.Greater(t, res[0].Score, res[1].Score)
}

func TestRankEmptyTermsReturnsNil(t *testing.T) {
	cont := docContainer([2]int64{0, 9})
	entry := stats.Build(1, 10, stats.Params{K1: 1.2, B: 0.75})
	res, err := Rank(context.Background(), cont, nil, entry, Options{TopK: 5, DocumentLevel: true})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestRankWordLevelCountsOccurrences(t *testing.T) {
	cont := docContainer([2]int64{0, 19}, [2]int64{20, 39})
	// Word-level term: raw token positions, several occurrences in the
	// first document, one in the second.
	termStarts := []offset.Offset{1, 3, 5, 7, 25}
	term := postings.NewArray(append([]offset.Offset{}, termStarts...), append([]offset.Offset{}, termStarts...))
	entry := stats.Build(2, 40, stats.Params{K1: 1.2, B: 0.75})

	res, err := Rank(context.Background(), cont, []TermInput{
		{Name: "w", List: term, Weight: 1.0},
	}, entry, Options{K1: 1.2, B: 0.75, TopK: 10, DocumentLevel: false})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, offset.Offset(0), res[0].From)
	assert.Greater(t, res[0].Score, res[1].Score)
}

func TestRankWordLevelProximityBoostsAdjacentTerms(t *testing.T) {
	cont := docContainer([2]int64{0, 99}, [2]int64{100, 199})
	// "quick" and "fox" adjacent in the first doc, far apart in the second.
	quick := postings.NewArray([]offset.Offset{5, 150}, []offset.Offset{5, 150})
	fox := postings.NewArray([]offset.Offset{6, 199}, []offset.Offset{6, 199})
	entry := stats.Build(2, 200, stats.Params{K1: 1.2, B: 0.75})

	res, err := Rank(context.Background(), cont, []TermInput{
		{Name: "quick", List: quick, Weight: 1.0},
		{Name: "fox", List: fox, Weight: 1.0},
	}, entry, Options{K1: 1.2, B: 0.75, TopK: 10, DocumentLevel: false, UseProximity: true})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, offset.Offset(0), res[0].From)
	assert.Greater(t, res[0].Score, res[1].Score)
}

func TestRankMaxScorePruningPreservesTopK(t *testing.T) {
	// One strong term present in every document with a distinct TF, plus
	// three weak terms (maxSuckers == 3) that can only ever nudge a
	// document's score, never decide it — their combined maximum
	// contribution is tiny next to the strong term's spread. With TopK
	// small, the floor rises fast enough that pruning engages well
	// before the scan ends; the top-3 must still come out exactly as if
	// the weak terms were never there at all.
	const nDocs = 24
	bounds := make([][2]int64, nDocs)
	var strongPostings []struct {
		DocStart offset.Offset
		TF       uint32
	}
	for i := 0; i < nDocs; i++ {
		start := int64(i) * 128
		bounds[i] = [2]int64{start, start + 99}
		strongPostings = append(strongPostings, posting(offset.Offset(start), uint32(i+1)))
	}
	cont := docContainer(bounds...)
	strong := docLevelTerm(strongPostings...)

	// Weak terms each touch a handful of low-ranked documents only.
	weakA := docLevelTerm(posting(0, 1), posting(128, 1))
	weakB := docLevelTerm(posting(256, 1))
	weakC := docLevelTerm(posting(384, 1))

	entry := stats.Build(nDocs, nDocs*100, stats.Params{K1: 1.2, B: 0.75})
	opts := Options{K1: 1.2, B: 0.75, TopK: 3, DocumentLevel: true}

	withWeak, err := Rank(context.Background(), cont, []TermInput{
		{Name: "strong", List: strong, Weight: 1000.0},
		{Name: "weakA", List: weakA, Weight: 1e-4},
		{Name: "weakB", List: weakB, Weight: 1e-4},
		{Name: "weakC", List: weakC, Weight: 1e-4},
	}, entry, opts)
	require.NoError(t, err)

	withoutWeak, err := Rank(context.Background(), cont, []TermInput{
		{Name: "strong", List: strong, Weight: 1000.0},
	}, entry, opts)
	require.NoError(t, err)

	require.Len(t, withWeak, 3)
	require.Len(t, withoutWeak, 3)
	for i := range withWeak {
		assert.Equal(t, withoutWeak[i].From, withWeak[i].From)
		assert.Equal(t, withoutWeak[i].To, withWeak[i].To)
	}
	// The strongest TF postings are at the highest doc starts.
	assert.Equal(t, offset.Offset((nDocs-1)*128), withWeak[0].From)
}

func TestRemoveSuckersMaintainsHeapInvariant(t *testing.T) {
	mk := func(name string, from offset.Offset) *termState {
		return &termState{name: name, cur: offset.Extent{From: from, To: from}, curOK: true}
	}
	a, b, c, d := mk("a", 10), mk("b", 20), mk("c", 5), mk("d", 30)

	h := &termHeap{}
	heap.Init(h)
	for _, st := range []*termState{a, b, c, d} {
		heap.Push(h, st)
	}

	removeSuckers(h, []*termState{b, d})
	require.Equal(t, 2, h.Len())
	assert.Equal(t, -1, b.heapIdx)
	assert.Equal(t, -1, d.heapIdx)

	var order []string
	for h.Len() > 0 {
		order = append(order, heap.Pop(h).(*termState).name)
	}
	assert.Equal(t, []string{"c", "a"}, order)
}

func TestRankContextCancellation(t *testing.T) {
	cont := docContainer([2]int64{0, 99}, [2]int64{128, 227})
	term := docLevelTerm(posting(0, 1), posting(128, 1))
	entry := stats.Build(2, 200, stats.Params{K1: 1.2, B: 0.75})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Rank(ctx, cont, []TermInput{{Name: "t", List: term, Weight: 1.0}}, entry, Options{TopK: 5, DocumentLevel: true})
	assert.Error(t, err)
}
