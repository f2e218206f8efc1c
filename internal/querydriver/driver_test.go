package querydriver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amanmcp/internal/errors"
	"github.com/Aman-CERP/amanmcp/internal/offset"
	"github.com/Aman-CERP/amanmcp/internal/postings"
	"github.com/Aman-CERP/amanmcp/internal/ranker"
	"github.com/Aman-CERP/amanmcp/internal/security"
	"github.com/Aman-CERP/amanmcp/internal/stats"
	"github.com/Aman-CERP/amanmcp/internal/visibility"
)

// fakeContainer is three documents of ten tokens each, at
// [0,9] [10,19] [20,29].
type fakeContainer struct{}

func (fakeContainer) List() postings.List {
	starts := []offset.Offset{0, 10, 20}
	ends := []offset.Offset{9, 19, 29}
	return postings.NewArray(starts, ends)
}

func (fakeContainer) Fingerprint() uint64      { return 99 }
func (fakeContainer) DocCount() (int64, int64) { return 3, 30 }

// termList maps a term name to the single document it occurs in.
func termList(docFrom, docTo offset.Offset) postings.List {
	return postings.NewArray([]offset.Offset{docFrom}, []offset.Offset{docTo})
}

func newFixture(t *testing.T, full *visibility.Table) *Driver {
	t.Helper()
	resolver := TermResolverFunc(func(_ context.Context, term string) (postings.List, int64, error) {
		switch term {
		case "foo":
			return termList(0, 9), 1, nil
		case "bar":
			return termList(10, 19), 1, nil
		case "baz":
			return termList(0, 9), 1, nil
		default:
			return postings.NewArray(nil, nil), 0, nil
		}
	})
	secResolver := security.NewResolver(full)
	secResolver.Grant("alice", visibility.NewTable([]visibility.Range{
		{FileID: 1, StartOffset: 0, TokenCount: 30, DocumentType: visibility.DocumentTypeSource},
	}))
	return New(resolver, secResolver, stats.NewCache(), stats.Params{K1: 1.2, B: 0.75}, nil)
}

func TestQuery_SingleTermRanksMatchingDocument(t *testing.T) {
	d := newFixture(t, nil)
	results, err := d.Query(context.Background(), security.NewContext("alice"), Input{
		QueryString: "foo",
		Container:   fakeContainer{},
		Options:     ranker.Options{TopK: 10, UseIDF: false},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, offset.Offset(0), results[0].From)
}

func TestQuery_AndOfTwoTermsRanksOnlyMatchingDocument(t *testing.T) {
	d := newFixture(t, nil)
	results, err := d.Query(context.Background(), security.NewContext("alice"), Input{
		QueryString: "+foo +baz",
		Container:   fakeContainer{},
		Options:     ranker.Options{TopK: 10},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, offset.Offset(0), results[0].From)
}

func TestQuery_OrOfTwoTermsRanksBothDocuments(t *testing.T) {
	d := newFixture(t, nil)
	results, err := d.Query(context.Background(), security.NewContext("alice"), Input{
		QueryString: "foo bar",
		Container:   fakeContainer{},
		Options:     ranker.Options{TopK: 10},
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestQuery_AccessDeniedForUnknownUser(t *testing.T) {
	d := newFixture(t, nil)
	_, err := d.Query(context.Background(), security.NewContext("mallory"), Input{
		QueryString: "foo",
		Container:   fakeContainer{},
		Options:     ranker.Options{TopK: 10},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAccessDenied, errors.GetCode(err))
}

func TestQuery_GodBypassesVisibility(t *testing.T) {
	full := visibility.NewTable([]visibility.Range{
		{FileID: 1, StartOffset: 0, TokenCount: 30, DocumentType: visibility.DocumentTypeSource},
	})
	d := newFixture(t, full)
	ctx := security.NewContext("anyone")
	ctx.God = true

	results, err := d.Query(context.Background(), ctx, Input{
		QueryString: "foo",
		Container:   fakeContainer{},
		Options:     ranker.Options{TopK: 10},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestQuery_MalformedQuerySurfacesSyntaxError(t *testing.T) {
	d := newFixture(t, nil)
	_, err := d.Query(context.Background(), security.NewContext("alice"), Input{
		QueryString: `"unterminated`,
		Container:   fakeContainer{},
		Options:     ranker.Options{TopK: 10},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeQuerySyntax, errors.GetCode(err))
}

func TestQuery_CancelledContextSurfacesAsCancelled(t *testing.T) {
	d := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Query(ctx, security.NewContext("alice"), Input{
		QueryString: "foo",
		Container:   fakeContainer{},
		Options:     ranker.Options{TopK: 10},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCancelled, errors.GetCode(err))
}
