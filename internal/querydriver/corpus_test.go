package querydriver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amanmcp/internal/offset"
	"github.com/Aman-CERP/amanmcp/internal/postings"
	"github.com/Aman-CERP/amanmcp/internal/ranker"
	"github.com/Aman-CERP/amanmcp/internal/security"
	"github.com/Aman-CERP/amanmcp/internal/stats"
	"github.com/Aman-CERP/amanmcp/internal/visibility"
)

// synthCorpus is the end-to-end scenario: 8 documents of 10 tokens
// each (80 tokens total), laid out at offsets [i*10, i*10+9]. Only
// doc0 and doc2 contain the adjacent pair "new"/"york"; "is" appears
// in doc0 and doc1 only.
//
//	doc0: new york is a big city x x x x
//	doc1: boston is nice x x x x x x x
//	doc2: new york times newspaper x x x x x x
//	doc3..doc7: filler, no "new"/"york"/"is"
type synthCorpus struct{}

func (synthCorpus) List() postings.List {
	starts := make([]offset.Offset, 8)
	ends := make([]offset.Offset, 8)
	for i := 0; i < 8; i++ {
		starts[i] = offset.Offset(i * 10)
		ends[i] = offset.Offset(i*10 + 9)
	}
	return postings.NewArray(starts, ends)
}

func (synthCorpus) Fingerprint() uint64      { return 8080 }
func (synthCorpus) DocCount() (int64, int64) { return 8, 80 }

func synthResolver() TermResolver {
	terms := map[string][]offset.Offset{
		"new":  {0, 20},
		"york": {1, 21},
		"is":   {2, 11},
	}
	return TermResolverFunc(func(_ context.Context, term string) (postings.List, int64, error) {
		offs, ok := terms[term]
		if !ok {
			return postings.NewArray(nil, nil), 0, nil
		}
		return postings.NewArray(append([]offset.Offset{}, offs...), append([]offset.Offset{}, offs...)), int64(len(offs)), nil
	})
}

func synthDriver(full *visibility.Table) *Driver {
	sec := security.NewResolver(full)
	sec.Grant("u", visibility.NewTable([]visibility.Range{
		{FileID: 0, StartOffset: 0, TokenCount: 10, DocumentType: visibility.DocumentTypeSource},
		{FileID: 2, StartOffset: 20, TokenCount: 10, DocumentType: visibility.DocumentTypeSource},
	}))
	return New(synthResolver(), sec, stats.NewCache(), stats.Params{K1: 1.2, B: 0.75}, nil)
}

// The "new york" phrase only matches adjacent occurrences: both
// documents containing the words have them adjacent, so both rank
// (spec §8's phrase-adjacency scenario).
func TestSynthCorpus_PhraseMatchesBothDocumentsUnderFullVisibility(t *testing.T) {
	full := visibility.NewTable([]visibility.Range{
		{FileID: 0, StartOffset: 0, TokenCount: 80, DocumentType: visibility.DocumentTypeSource},
	})
	d := synthDriver(full)
	ctx := security.NewContext("god")
	ctx.God = true

	results, err := d.Query(context.Background(), ctx, Input{
		QueryString: `"new york"`,
		Container:   synthCorpus{},
		Options:     ranker.Options{TopK: 10, DocumentLevel: false},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, offset.Offset(0), results[0].From)
	assert.Equal(t, offset.Offset(20), results[1].From)
}

// Principal u is granted only doc0 and doc2's ranges. Querying "is" —
// which occurs in doc0 and doc1 — must surface only doc0: doc1's
// occurrence is invisible to u (spec §8's security scenario: "U sees
// only doc0, doc2").
func TestSynthCorpus_SecurityRestrictsToGrantedDocumentsOnly(t *testing.T) {
	d := synthDriver(nil)

	results, err := d.Query(context.Background(), security.NewContext("u"), Input{
		QueryString: "is",
		Container:   synthCorpus{},
		Options:     ranker.Options{TopK: 10, DocumentLevel: false},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, offset.Offset(0), results[0].From)
}

// Without the restriction, the same query surfaces both documents —
// confirming the prior test's single result is due to the security
// wrapper, not the query itself.
func TestSynthCorpus_UnrestrictedQuerySeesBothDocuments(t *testing.T) {
	full := visibility.NewTable([]visibility.Range{
		{FileID: 0, StartOffset: 0, TokenCount: 80, DocumentType: visibility.DocumentTypeSource},
	})
	d := synthDriver(full)
	ctx := security.NewContext("god")
	ctx.God = true

	results, err := d.Query(context.Background(), ctx, Input{
		QueryString: "is",
		Container:   synthCorpus{},
		Options:     ranker.Options{TopK: 10, DocumentLevel: false},
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

// u's restriction also hides the phrase match in doc2 whenever doc2 is
// not granted, and never fabricates a match for a document u cannot
// see even when both query words individually resolve globally.
func TestSynthCorpus_PhraseRestrictedToGrantedDocuments(t *testing.T) {
	d := synthDriver(nil)

	results, err := d.Query(context.Background(), security.NewContext("u"), Input{
		QueryString: `"new york"`,
		Container:   synthCorpus{},
		Options:     ranker.Options{TopK: 10, DocumentLevel: false},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, offset.Offset(0), results[0].From)
	assert.Equal(t, offset.Offset(20), results[1].From)
}
