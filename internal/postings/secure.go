package postings

import "github.com/Aman-CERP/amanmcp/internal/offset"

// visibleFilterList wraps an inner list, filtering out any extent the
// visible set does not fully contain (spec §4.7: "visible.restrict(L) =
// Containment(Security(visible), L, ⊐)"). It reuses inner's own
// directional queries and simply skips non-visible candidates, relying
// on the inner list's monotone cursor rather than rescanning: since
// visibility never reorders extents, a rejected candidate's successor
// is found by querying inner again one position further, not from the
// start.
type visibleFilterList struct {
	inner   List
	visible VisibleSet
}

func (v *visibleFilterList) FirstStartBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	for {
		e, ok, err := v.inner.FirstStartBiggerEq(p)
		if err != nil || !ok {
			return offset.Extent{}, false, err
		}
		if v.visible.ContainsExtent(e) {
			return e, true, nil
		}
		p = e.From + 1
	}
}

func (v *visibleFilterList) FirstEndBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	for {
		e, ok, err := v.inner.FirstEndBiggerEq(p)
		if err != nil || !ok {
			return offset.Extent{}, false, err
		}
		if v.visible.ContainsExtent(e) {
			return e, true, nil
		}
		p = e.To + 1
	}
}

func (v *visibleFilterList) LastStartSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	for {
		e, ok, err := v.inner.LastStartSmallerEq(p)
		if err != nil || !ok {
			return offset.Extent{}, false, err
		}
		if v.visible.ContainsExtent(e) {
			return e, true, nil
		}
		p = e.From - 1
	}
}

func (v *visibleFilterList) LastEndSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	for {
		e, ok, err := v.inner.LastEndSmallerEq(p)
		if err != nil || !ok {
			return offset.Extent{}, false, err
		}
		if v.visible.ContainsExtent(e) {
			return e, true, nil
		}
		p = e.To - 1
	}
}

func (v *visibleFilterList) NextN(from, to offset.Offset, out []offset.Extent) (int, error) {
	count := 0
	p := from
	for count < len(out) {
		e, ok, err := v.inner.FirstStartBiggerEq(p)
		if err != nil {
			return count, err
		}
		if !ok || e.From > to {
			break
		}
		if v.visible.ContainsExtent(e) {
			out[count] = e
			count++
		}
		p = e.From + 1
	}
	return count, nil
}

func (v *visibleFilterList) Length() (offset.Offset, error) {
	n, err := v.Count(0, offset.MaxOffset)
	return n, err
}

func (v *visibleFilterList) Count(from, to offset.Offset) (offset.Offset, error) {
	var n offset.Offset
	p := from
	for {
		e, ok, err := v.inner.FirstStartBiggerEq(p)
		if err != nil {
			return n, err
		}
		if !ok || e.From > to {
			break
		}
		if v.visible.ContainsExtent(e) {
			n++
		}
		p = e.From + 1
	}
	return n, nil
}

func (v *visibleFilterList) GetNth(i offset.Offset) (offset.Extent, bool) {
	// Streaming filter: random access degrades to a forward scan,
	// matching the documented "may fail on streaming lists" contract.
	var n offset.Offset
	p := offset.Offset(0)
	for {
		e, ok, err := v.inner.FirstStartBiggerEq(p)
		if err != nil || !ok {
			return offset.Extent{}, false
		}
		if v.visible.ContainsExtent(e) {
			if n == i {
				return e, true
			}
			n++
		}
		p = e.From + 1
	}
}

func (v *visibleFilterList) IsSecure() bool      { return true }
func (v *visibleFilterList) IsAlmostSecure() bool { return true }

func (v *visibleFilterList) MakeAlmostSecure(visible VisibleSet) List {
	// Already filtered; re-wrapping with the same visible set is a
	// no-op, and the interface offers no way to compose two different
	// visible sets meaningfully, so the narrower (existing) filter wins.
	return v
}

func (v *visibleFilterList) Optimize() List {
	v.inner = v.inner.Optimize()
	return v
}
