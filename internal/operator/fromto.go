package operator

import (
	"github.com/Aman-CERP/amanmcp/internal/offset"
	"github.com/Aman-CERP/amanmcp/internal/postings"
)

// FromTo pairs each opening marker from Open with the first closing
// marker from Close that follows it, producing well-nested container
// extents (spec §4.3) — the building block for e.g. matching an
// element's start tag to its nearest following end tag.
type FromTo struct {
	Open, Close postings.List
}

func (f *FromTo) pairAfter(open offset.Extent) (offset.Extent, bool, error) {
	b, ok, err := f.Close.FirstStartBiggerEq(open.To + 1)
	if err != nil || !ok {
		return offset.Extent{}, false, err
	}
	return offset.Extent{From: open.From, To: b.To}, true, nil
}

func (f *FromTo) FirstStartBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	a, ok, err := f.Open.FirstStartBiggerEq(p)
	if err != nil || !ok {
		return offset.Extent{}, false, err
	}
	return f.pairAfter(a)
}

func (f *FromTo) FirstEndBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	cur := offset.Offset(0)
	for {
		a, ok, err := f.Open.FirstStartBiggerEq(cur)
		if err != nil || !ok {
			return offset.Extent{}, false, err
		}
		e, ok, err := f.pairAfter(a)
		if err != nil {
			return offset.Extent{}, false, err
		}
		if !ok {
			return offset.Extent{}, false, nil
		}
		if e.To >= p {
			return e, true, nil
		}
		cur = a.From + 1
	}
}

func (f *FromTo) LastStartSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	cur := p
	for {
		a, ok, err := f.Open.LastStartSmallerEq(cur)
		if err != nil || !ok {
			return offset.Extent{}, false, err
		}
		e, ok, err := f.pairAfter(a)
		if err != nil {
			return offset.Extent{}, false, err
		}
		if ok {
			return e, true, nil
		}
		cur = a.From - 1
	}
}

func (f *FromTo) LastEndSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	cur := offset.MaxOffset
	for {
		a, ok, err := f.Open.LastStartSmallerEq(cur)
		if err != nil || !ok {
			return offset.Extent{}, false, err
		}
		e, ok, err := f.pairAfter(a)
		if err != nil {
			return offset.Extent{}, false, err
		}
		if ok && e.To <= p {
			return e, true, nil
		}
		cur = a.From - 1
	}
}

func (f *FromTo) NextN(from, to offset.Offset, out []offset.Extent) (int, error) {
	count := 0
	cur := from
	for count < len(out) {
		a, ok, err := f.Open.FirstStartBiggerEq(cur)
		if err != nil {
			return count, err
		}
		if !ok || a.From > to {
			break
		}
		e, ok, err := f.pairAfter(a)
		if err != nil {
			return count, err
		}
		if !ok {
			break
		}
		if e.To <= to {
			out[count] = e
			count++
		}
		cur = a.From + 1
	}
	return count, nil
}

func (f *FromTo) Length() (offset.Offset, error) { return f.Count(0, offset.MaxOffset) }

func (f *FromTo) Count(from, to offset.Offset) (offset.Offset, error) {
	var n offset.Offset
	cur := from
	for {
		a, ok, err := f.Open.FirstStartBiggerEq(cur)
		if err != nil {
			return n, err
		}
		if !ok || a.From > to {
			return n, nil
		}
		e, ok, err := f.pairAfter(a)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		if e.To <= to {
			n++
		}
		cur = a.From + 1
	}
}

func (f *FromTo) GetNth(i offset.Offset) (offset.Extent, bool) { return offset.Extent{}, false }

func (f *FromTo) IsSecure() bool       { return f.Open.IsSecure() && f.Close.IsSecure() }
func (f *FromTo) IsAlmostSecure() bool { return f.Open.IsAlmostSecure() && f.Close.IsAlmostSecure() }

func (f *FromTo) MakeAlmostSecure(visible postings.VisibleSet) postings.List {
	return &FromTo{Open: f.Open.MakeAlmostSecure(visible), Close: f.Close.MakeAlmostSecure(visible)}
}

func (f *FromTo) Optimize() postings.List {
	f.Open = f.Open.Optimize()
	f.Close = f.Close.Optimize()
	return f
}
