package postings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amanmcp/internal/offset"
)

func newArray(pairs ...[2]int64) *Array {
	starts := make([]offset.Offset, len(pairs))
	ends := make([]offset.Offset, len(pairs))
	for i, p := range pairs {
		starts[i] = offset.Offset(p[0])
		ends[i] = offset.Offset(p[1])
	}
	return NewArray(starts, ends)
}

func TestArrayFirstStartBiggerEq(t *testing.T) {
	a := newArray([2]int64{0, 9}, [2]int64{10, 19}, [2]int64{20, 29})

	e, ok, err := a.FirstStartBiggerEq(11)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, offset.Offset(20), e.From)

	_, ok, err = a.FirstStartBiggerEq(30)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArrayLastStartSmallerEq(t *testing.T) {
	a := newArray([2]int64{0, 9}, [2]int64{10, 19}, [2]int64{20, 29})

	e, ok, err := a.LastStartSmallerEq(15)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, offset.Offset(10), e.From)

	_, ok, err = a.LastStartSmallerEq(-1)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Posting-list monotonicity (spec §8): issuing the same directional
// query with a non-decreasing p must never return an earlier result
// than the previous call, and a fresh Array given the same non-
// decreasing sequence of queries must agree with a never-cursor-
// advancing brute-force scan.
func TestArrayMonotonicityUnderNonDecreasingQueries(t *testing.T) {
	a := newArray([2]int64{0, 9}, [2]int64{15, 24}, [2]int64{40, 49}, [2]int64{100, 109})
	queries := []offset.Offset{0, 3, 10, 16, 41, 105, 200}

	var lastFrom offset.Offset = -1
	for _, q := range queries {
		e, ok, err := a.FirstStartBiggerEq(q)
		require.NoError(t, err)
		if !ok {
			continue
		}
		assert.GreaterOrEqual(t, e.From, lastFrom)
		lastFrom = e.From
	}
}

func TestArrayNextNPaginatesAcrossCalls(t *testing.T) {
	a := newArray([2]int64{0, 0}, [2]int64{1, 1}, [2]int64{2, 2}, [2]int64{3, 3}, [2]int64{4, 4})
	buf := make([]offset.Extent, 2)

	n, err := a.NextN(0, offset.MaxOffset, buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	assert.Equal(t, offset.Offset(0), buf[0].From)
	assert.Equal(t, offset.Offset(1), buf[1].From)

	n, err = a.NextN(buf[n-1].From+1, offset.MaxOffset, buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	assert.Equal(t, offset.Offset(2), buf[0].From)
	assert.Equal(t, offset.Offset(3), buf[1].From)
}

func TestArrayGetNth(t *testing.T) {
	a := newArray([2]int64{0, 9}, [2]int64{10, 19})
	e, ok := a.GetNth(1)
	require.True(t, ok)
	assert.Equal(t, offset.Offset(10), e.From)

	_, ok = a.GetNth(5)
	assert.False(t, ok)
}

func TestEmptyListAlwaysReportsNotFound(t *testing.T) {
	var e Empty
	_, ok, err := e.FirstStartBiggerEq(0)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := e.Length()
	require.NoError(t, err)
	assert.Equal(t, offset.Offset(0), n)
}

func TestOneElementReportsWithinBounds(t *testing.T) {
	o := OneElement{E: offset.Extent{From: 10, To: 19}}

	e, ok, err := o.FirstStartBiggerEq(5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, offset.Offset(10), e.From)

	_, ok, err = o.FirstStartBiggerEq(11)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRangeActsAsSingleExtent(t *testing.T) {
	r := Range{From: 0, To: 99}
	n, err := r.Length()
	require.NoError(t, err)
	assert.Equal(t, offset.Offset(1), n)

	e, ok, err := r.FirstEndBiggerEq(50)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, offset.Extent{From: 0, To: 99}, e)
}

// fakeVisible implements VisibleSet for the secure-wrapping tests
// below, restricting to a single fully-visible range.
type fakeVisible struct {
	visible offset.Extent
}

func (f fakeVisible) ContainsExtent(e offset.Extent) bool {
	return f.visible.From <= e.From && e.To <= f.visible.To
}

func TestMakeAlmostSecureFiltersInvisibleExtents(t *testing.T) {
	a := newArray([2]int64{0, 9}, [2]int64{50, 59}, [2]int64{100, 109})
	secured := a.MakeAlmostSecure(fakeVisible{visible: offset.Extent{From: 40, To: 70}})

	e, ok, err := secured.FirstStartBiggerEq(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, offset.Offset(50), e.From)

	_, ok, err = secured.FirstStartBiggerEq(60)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, secured.IsSecure())
}

func TestCopyDelegatesToUnderlyingList(t *testing.T) {
	a := newArray([2]int64{0, 9}, [2]int64{10, 19})
	c := Copy{Underlying: a}

	e, ok, err := c.FirstStartBiggerEq(5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, offset.Offset(10), e.From)

	n, err := c.Length()
	require.NoError(t, err)
	assert.Equal(t, offset.Offset(2), n)
}
