package postings

import "github.com/Aman-CERP/amanmcp/internal/offset"

// OneElement is a posting list holding exactly one extent, the base
// case operators fall back to when a query collapses to a single
// known match.
type OneElement struct {
	E offset.Extent
}

func (o OneElement) FirstStartBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	if o.E.From >= p {
		return o.E, true, nil
	}
	return offset.Extent{}, false, nil
}

func (o OneElement) FirstEndBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	if o.E.To >= p {
		return o.E, true, nil
	}
	return offset.Extent{}, false, nil
}

func (o OneElement) LastStartSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	if o.E.From <= p {
		return o.E, true, nil
	}
	return offset.Extent{}, false, nil
}

func (o OneElement) LastEndSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	if o.E.To <= p {
		return o.E, true, nil
	}
	return offset.Extent{}, false, nil
}

func (o OneElement) NextN(from, to offset.Offset, out []offset.Extent) (int, error) {
	if len(out) == 0 {
		return 0, nil
	}
	if o.E.From >= from && o.E.To <= to {
		out[0] = o.E
		return 1, nil
	}
	return 0, nil
}

func (o OneElement) Length() (offset.Offset, error) { return 1, nil }

func (o OneElement) Count(from, to offset.Offset) (offset.Offset, error) {
	if o.E.From >= from && o.E.To <= to {
		return 1, nil
	}
	return 0, nil
}

func (o OneElement) GetNth(i offset.Offset) (offset.Extent, bool) {
	if i == 0 {
		return o.E, true
	}
	return offset.Extent{}, false
}

func (OneElement) IsSecure() bool      { return false }
func (OneElement) IsAlmostSecure() bool { return false }

func (o OneElement) MakeAlmostSecure(visible VisibleSet) List {
	return &visibleFilterList{inner: o, visible: visible}
}

func (o OneElement) Optimize() List { return o }
