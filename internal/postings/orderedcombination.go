package postings

import "github.com/Aman-CERP/amanmcp/internal/offset"

// OrderedCombination concatenates N disjoint posting lists, each
// occupying its own contiguous slice of the global offset space, into
// a single list — used to stitch together sub-indexes built
// independently (spec §4.2). Lists[i]'s own offsets are local to that
// sub-index; Addends[i] is added to every offset it produces to place
// it in the combined space, and Spans[i] is the size of its local
// domain (so Addends[i]+Spans[i] == Addends[i+1]).
type OrderedCombination struct {
	Lists   []List
	Addends []offset.Offset
	Spans   []offset.Offset

	cursor int
}

// NewOrderedCombination builds a combination from per-child lists and
// local domain spans, deriving the addends as a running sum.
func NewOrderedCombination(lists []List, spans []offset.Offset) *OrderedCombination {
	addends := make([]offset.Offset, len(lists))
	var acc offset.Offset
	for i := range lists {
		addends[i] = acc
		acc += spans[i]
	}
	return &OrderedCombination{Lists: lists, Addends: addends, Spans: spans}
}

func globalize(e offset.Extent, addend offset.Offset) offset.Extent {
	return offset.Extent{From: e.From + addend, To: e.To + addend}
}

func (o *OrderedCombination) childForGlobal(p offset.Offset) int {
	i := expSearchLE(o.Addends, o.cursor, p)
	if i < 0 {
		i = 0
	}
	if i >= len(o.Lists) {
		i = len(o.Lists) - 1
	}
	return i
}

func (o *OrderedCombination) FirstStartBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	if len(o.Lists) == 0 {
		return offset.Extent{}, false, nil
	}
	idx := o.childForGlobal(p)
	local := p - o.Addends[idx]
	if local < 0 {
		local = 0
	}
	for idx < len(o.Lists) {
		e, ok, err := o.Lists[idx].FirstStartBiggerEq(local)
		if err != nil {
			return offset.Extent{}, false, err
		}
		if ok {
			o.cursor = idx
			return globalize(e, o.Addends[idx]), true, nil
		}
		idx++
		local = 0
	}
	return offset.Extent{}, false, nil
}

func (o *OrderedCombination) FirstEndBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	if len(o.Lists) == 0 {
		return offset.Extent{}, false, nil
	}
	idx := o.childForGlobal(p)
	local := p - o.Addends[idx]
	if local < 0 {
		local = 0
	}
	for idx < len(o.Lists) {
		e, ok, err := o.Lists[idx].FirstEndBiggerEq(local)
		if err != nil {
			return offset.Extent{}, false, err
		}
		if ok {
			o.cursor = idx
			return globalize(e, o.Addends[idx]), true, nil
		}
		idx++
		local = 0
	}
	return offset.Extent{}, false, nil
}

func (o *OrderedCombination) LastStartSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	if len(o.Lists) == 0 {
		return offset.Extent{}, false, nil
	}
	idx := o.childForGlobal(p)
	local := p - o.Addends[idx]
	for idx >= 0 {
		e, ok, err := o.Lists[idx].LastStartSmallerEq(local)
		if err != nil {
			return offset.Extent{}, false, err
		}
		if ok {
			o.cursor = idx
			return globalize(e, o.Addends[idx]), true, nil
		}
		idx--
		if idx >= 0 {
			local = o.Spans[idx]
		}
	}
	return offset.Extent{}, false, nil
}

func (o *OrderedCombination) LastEndSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	if len(o.Lists) == 0 {
		return offset.Extent{}, false, nil
	}
	idx := o.childForGlobal(p)
	local := p - o.Addends[idx]
	for idx >= 0 {
		e, ok, err := o.Lists[idx].LastEndSmallerEq(local)
		if err != nil {
			return offset.Extent{}, false, err
		}
		if ok {
			o.cursor = idx
			return globalize(e, o.Addends[idx]), true, nil
		}
		idx--
		if idx >= 0 {
			local = o.Spans[idx]
		}
	}
	return offset.Extent{}, false, nil
}

func (o *OrderedCombination) NextN(from, to offset.Offset, out []offset.Extent) (int, error) {
	if len(o.Lists) == 0 {
		return 0, nil
	}
	idx := o.childForGlobal(from)
	count := 0
	for idx < len(o.Lists) && count < len(out) {
		addend := o.Addends[idx]
		if addend > to {
			break
		}
		localFrom := from - addend
		if localFrom < 0 {
			localFrom = 0
		}
		localTo := to - addend
		if localTo > o.Spans[idx]-1 {
			localTo = o.Spans[idx] - 1
		}
		if localTo < 0 {
			idx++
			continue
		}
		n, err := o.Lists[idx].NextN(localFrom, localTo, out[count:])
		if err != nil {
			return count, err
		}
		for i := count; i < count+n; i++ {
			out[i] = globalize(out[i], addend)
		}
		count += n
		idx++
	}
	return count, nil
}

func (o *OrderedCombination) Length() (offset.Offset, error) {
	var total offset.Offset
	for _, l := range o.Lists {
		n, err := l.Length()
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (o *OrderedCombination) Count(from, to offset.Offset) (offset.Offset, error) {
	var total offset.Offset
	for i, l := range o.Lists {
		addend := o.Addends[i]
		if addend > to {
			break
		}
		localFrom := from - addend
		if localFrom < 0 {
			localFrom = 0
		}
		localTo := to - addend
		if localTo > o.Spans[i]-1 {
			localTo = o.Spans[i] - 1
		}
		if localTo < 0 {
			continue
		}
		n, err := l.Count(localFrom, localTo)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (o *OrderedCombination) GetNth(i offset.Offset) (offset.Extent, bool) {
	for idx, l := range o.Lists {
		n, err := l.Length()
		if err != nil {
			return offset.Extent{}, false
		}
		if i < n {
			e, ok := l.GetNth(i)
			if !ok {
				return offset.Extent{}, false
			}
			return globalize(e, o.Addends[idx]), true
		}
		i -= n
	}
	return offset.Extent{}, false
}

func (o *OrderedCombination) IsSecure() bool {
	for _, l := range o.Lists {
		if !l.IsSecure() {
			return false
		}
	}
	return true
}

func (o *OrderedCombination) IsAlmostSecure() bool {
	for _, l := range o.Lists {
		if !l.IsAlmostSecure() {
			return false
		}
	}
	return true
}

func (o *OrderedCombination) MakeAlmostSecure(visible VisibleSet) List {
	wrapped := make([]List, len(o.Lists))
	for i, l := range o.Lists {
		wrapped[i] = l.MakeAlmostSecure(visible)
	}
	return &OrderedCombination{Lists: wrapped, Addends: o.Addends, Spans: o.Spans}
}

func (o *OrderedCombination) Optimize() List {
	for i, l := range o.Lists {
		o.Lists[i] = l.Optimize()
	}
	return o
}
