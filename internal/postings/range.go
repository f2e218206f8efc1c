package postings

import "github.com/Aman-CERP/amanmcp/internal/offset"

// Range is a constant-time posting list over a single contiguous span,
// used as the base container for "the whole corpus" or "the whole
// document" style queries. Semantically it is a single extent; it is
// kept as a distinct type from OneElement because callers construct it
// directly from a [from, to] pair rather than from a matched extent.
type Range struct {
	From, To offset.Offset
}

func (r Range) extent() offset.Extent { return offset.Extent{From: r.From, To: r.To} }

func (r Range) FirstStartBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	return OneElement{E: r.extent()}.FirstStartBiggerEq(p)
}

func (r Range) FirstEndBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	return OneElement{E: r.extent()}.FirstEndBiggerEq(p)
}

func (r Range) LastStartSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	return OneElement{E: r.extent()}.LastStartSmallerEq(p)
}

func (r Range) LastEndSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	return OneElement{E: r.extent()}.LastEndSmallerEq(p)
}

func (r Range) NextN(from, to offset.Offset, out []offset.Extent) (int, error) {
	return OneElement{E: r.extent()}.NextN(from, to, out)
}

func (r Range) Length() (offset.Offset, error) { return 1, nil }

func (r Range) Count(from, to offset.Offset) (offset.Offset, error) {
	return OneElement{E: r.extent()}.Count(from, to)
}

func (r Range) GetNth(i offset.Offset) (offset.Extent, bool) {
	return OneElement{E: r.extent()}.GetNth(i)
}

func (Range) IsSecure() bool       { return false }
func (Range) IsAlmostSecure() bool { return false }

func (r Range) MakeAlmostSecure(visible VisibleSet) List {
	return &visibleFilterList{inner: r, visible: visible}
}

func (r Range) Optimize() List { return r }
