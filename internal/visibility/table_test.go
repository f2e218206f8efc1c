package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amanmcp/internal/offset"
	"github.com/Aman-CERP/amanmcp/internal/postings"
)

func TestContainsExtentHoldsOnlyWithinOneRange(t *testing.T) {
	table := NewTable([]Range{
		{FileID: 1, StartOffset: 0, TokenCount: 100, DocumentType: DocumentTypeSource},
		{FileID: 2, StartOffset: 4096, TokenCount: 50, DocumentType: DocumentTypeDoc},
	})

	assert.True(t, table.ContainsExtent(offset.Extent{From: 10, To: 20}))
	assert.True(t, table.ContainsExtent(offset.Extent{From: 4096, To: 4100}))
	// Spans both ranges: not fully contained by either single entry.
	assert.False(t, table.ContainsExtent(offset.Extent{From: 90, To: 4100}))
	// Outside every range.
	assert.False(t, table.ContainsExtent(offset.Extent{From: 1000, To: 1010}))
}

func TestFileForReturnsOwningRange(t *testing.T) {
	table := NewTable([]Range{
		{FileID: 7, StartOffset: 0, TokenCount: 10, DocumentType: DocumentTypeTest},
	})
	r, ok := table.FileFor(5)
	require.True(t, ok)
	assert.Equal(t, uint64(7), r.FileID)

	_, ok = table.FileFor(50)
	assert.False(t, ok)
}

func TestRetainReleaseTracksRefcount(t *testing.T) {
	table := NewTable(nil) // refcount starts at 1
	table.Retain()
	assert.False(t, table.Release()) // 2 -> 1
	assert.True(t, table.Release())  // 1 -> 0
}

// This is the security scenario from spec §8: a principal U granted
// only doc0 and doc2's ranges must see extents from those documents
// and nothing from doc1.
func TestRestrictOnlyExposesGrantedDocuments(t *testing.T) {
	doc0 := offset.Extent{From: 0, To: 9}
	doc1 := offset.Extent{From: 4096, To: 4105}
	doc2 := offset.Extent{From: 8192, To: 8201}

	uTable := NewTable([]Range{
		{FileID: 0, StartOffset: doc0.From, TokenCount: doc0.Len()},
		{FileID: 2, StartOffset: doc2.From, TokenCount: doc2.Len()},
	})

	all := postings.NewArray(
		[]offset.Offset{doc0.From, doc1.From, doc2.From},
		[]offset.Offset{doc0.From, doc1.From, doc2.From},
	)

	restricted := Restrict(all, uTable)

	var got []offset.Extent
	buf := make([]offset.Extent, 8)
	n, err := restricted.NextN(0, offset.MaxOffset, buf)
	require.NoError(t, err)
	got = append(got, buf[:n]...)

	require.Len(t, got, 2)
	assert.Equal(t, doc0.From, got[0].From)
	assert.Equal(t, doc2.From, got[1].From)
}

func TestRestrictIsIdentityWhenEverythingVisible(t *testing.T) {
	full := NewTable([]Range{{FileID: 0, StartOffset: 0, TokenCount: offset.Granularity}})
	l := postings.NewArray([]offset.Offset{1, 2, 3}, []offset.Offset{1, 2, 3})
	restricted := Restrict(l, full)

	n, err := restricted.Length()
	require.NoError(t, err)
	assert.Equal(t, offset.Offset(3), n)
}
