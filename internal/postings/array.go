package postings

import "github.com/Aman-CERP/amanmcp/internal/offset"

// Array is a posting list backed by two sorted, strictly increasing
// slices: Start[i] and End[i] describe the i-th extent. Because the
// list is an antichain under containment with strict start order (spec
// §3), End is also strictly increasing, so every directional query
// reduces to a single exponential-then-binary search, either on Start
// or on End.
//
// A single cursor is kept per Array instance; it is never safe to
// share one Array across goroutines without going through Copy, which
// gives each caller its own cursor.
type Array struct {
	Start []offset.Offset
	End   []offset.Offset

	cursor int
}

// NewArray builds an Array from parallel start/end slices. The slices
// are taken by reference, not copied.
func NewArray(start, end []offset.Offset) *Array {
	return &Array{Start: start, End: end}
}

func (a *Array) extent(i int) offset.Extent {
	return offset.Extent{From: a.Start[i], To: a.End[i]}
}

func (a *Array) FirstStartBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	i := expSearchGE(a.Start, a.cursor, p)
	if i >= len(a.Start) {
		return offset.Extent{}, false, nil
	}
	a.cursor = i
	return a.extent(i), true, nil
}

func (a *Array) FirstEndBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	i := expSearchGE(a.End, a.cursor, p)
	if i >= len(a.End) {
		return offset.Extent{}, false, nil
	}
	a.cursor = i
	return a.extent(i), true, nil
}

func (a *Array) LastStartSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	i := expSearchLE(a.Start, a.cursor, p)
	if i < 0 {
		return offset.Extent{}, false, nil
	}
	a.cursor = i
	return a.extent(i), true, nil
}

func (a *Array) LastEndSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	i := expSearchLE(a.End, a.cursor, p)
	if i < 0 {
		return offset.Extent{}, false, nil
	}
	a.cursor = i
	return a.extent(i), true, nil
}

func (a *Array) NextN(from, to offset.Offset, out []offset.Extent) (int, error) {
	i := expSearchGE(a.Start, a.cursor, from)
	count := 0
	for count < len(out) && i < len(a.Start) && a.Start[i] <= to {
		if a.End[i] <= to {
			out[count] = a.extent(i)
			count++
		}
		i++
	}
	if i > 0 {
		a.cursor = i - 1
	}
	return count, nil
}

func (a *Array) Length() (offset.Offset, error) { return offset.Offset(len(a.Start)), nil }

func (a *Array) Count(from, to offset.Offset) (offset.Offset, error) {
	lo := expSearchGE(a.Start, 0, from)
	var n offset.Offset
	for i := lo; i < len(a.Start) && a.Start[i] <= to; i++ {
		if a.End[i] <= to {
			n++
		}
	}
	return n, nil
}

func (a *Array) GetNth(i offset.Offset) (offset.Extent, bool) {
	if i < 0 || int(i) >= len(a.Start) {
		return offset.Extent{}, false
	}
	return a.extent(int(i)), true
}

func (a *Array) IsSecure() bool      { return false }
func (a *Array) IsAlmostSecure() bool { return false }

func (a *Array) MakeAlmostSecure(visible VisibleSet) List {
	return &visibleFilterList{inner: a, visible: visible}
}

// Optimize is a no-op for Array: it is already a random-access,
// binary-searchable representation.
func (a *Array) Optimize() List { return a }
