// Package operator implements the GCL algebraic operators (AND, OR,
// Sequence, Containment, FromTo) purely atop postings.List's four
// directional queries (spec §4.3).
package operator

import (
	"github.com/Aman-CERP/amanmcp/internal/offset"
	"github.com/Aman-CERP/amanmcp/internal/postings"
)

// And intersects N children via Galago-style leap-frog join on the
// From coordinate: repeatedly ask every child for its next extent at
// or after the current candidate, advance the candidate to the
// largest From any child returned, and retry until all children agree
// or one is exhausted. The match extent spans the common From to the
// maximum To across children.
type And struct {
	Children []postings.List

	endCursor   offset.Offset
	lastEndP    offset.Offset
	hasLastEndP bool

	endCursorL   offset.Offset
	lastEndPL    offset.Offset
	hasLastEndPL bool
}

func (a *And) firstAligned(cur offset.Offset) (offset.Extent, bool, error) {
	if len(a.Children) == 0 {
		return offset.Extent{}, false, nil
	}
	for {
		maxFrom := cur
		exts := make([]offset.Extent, len(a.Children))
		for i, c := range a.Children {
			e, ok, err := c.FirstStartBiggerEq(cur)
			if err != nil {
				return offset.Extent{}, false, err
			}
			if !ok {
				return offset.Extent{}, false, nil
			}
			exts[i] = e
			if e.From > maxFrom {
				maxFrom = e.From
			}
		}
		agree := true
		var maxTo offset.Offset
		for _, e := range exts {
			if e.From != maxFrom {
				agree = false
			}
			if e.To > maxTo {
				maxTo = e.To
			}
		}
		if agree {
			return offset.Extent{From: maxFrom, To: maxTo}, true, nil
		}
		cur = maxFrom
	}
}

func (a *And) lastAligned(cur offset.Offset) (offset.Extent, bool, error) {
	if len(a.Children) == 0 {
		return offset.Extent{}, false, nil
	}
	for {
		minFrom := cur
		exts := make([]offset.Extent, len(a.Children))
		for i, c := range a.Children {
			e, ok, err := c.LastStartSmallerEq(cur)
			if err != nil {
				return offset.Extent{}, false, err
			}
			if !ok {
				return offset.Extent{}, false, nil
			}
			exts[i] = e
			if i == 0 || e.From < minFrom {
				minFrom = e.From
			}
		}
		agree := true
		var maxTo offset.Offset
		for _, e := range exts {
			if e.From != minFrom {
				agree = false
			}
			if e.To > maxTo {
				maxTo = e.To
			}
		}
		if agree {
			return offset.Extent{From: minFrom, To: maxTo}, true, nil
		}
		cur = minFrom
	}
}

func (a *And) FirstStartBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	return a.firstAligned(p)
}

func (a *And) FirstEndBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	cur := a.endCursor
	if !a.hasLastEndP || p < a.lastEndP {
		cur = 0
	}
	for {
		e, ok, err := a.firstAligned(cur)
		a.hasLastEndP, a.lastEndP = true, p
		if err != nil || !ok {
			return offset.Extent{}, false, err
		}
		if e.To >= p {
			a.endCursor = e.From + 1
			return e, true, nil
		}
		cur = e.From + 1
	}
}

func (a *And) LastStartSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	return a.lastAligned(p)
}

func (a *And) LastEndSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	cur := a.endCursorL
	if !a.hasLastEndPL || p > a.lastEndPL {
		cur = p
	}
	for {
		e, ok, err := a.lastAligned(cur)
		a.hasLastEndPL, a.lastEndPL = true, p
		if err != nil || !ok {
			return offset.Extent{}, false, err
		}
		if e.To <= p {
			a.endCursorL = e.From - 1
			return e, true, nil
		}
		cur = e.From - 1
	}
}

func (a *And) NextN(from, to offset.Offset, out []offset.Extent) (int, error) {
	count := 0
	cur := from
	for count < len(out) {
		e, ok, err := a.firstAligned(cur)
		if err != nil {
			return count, err
		}
		if !ok || e.From > to {
			break
		}
		if e.To <= to {
			out[count] = e
			count++
		}
		cur = e.From + 1
	}
	return count, nil
}

// Length and Count have no shortcut for a general leap-frog join: they
// enumerate matches via NextN. Callers on a hot path should prefer the
// directional queries directly.
func (a *And) Length() (offset.Offset, error) {
	return a.Count(0, offset.MaxOffset)
}

func (a *And) Count(from, to offset.Offset) (offset.Offset, error) {
	var n offset.Offset
	cur := from
	for {
		e, ok, err := a.firstAligned(cur)
		if err != nil {
			return n, err
		}
		if !ok || e.From > to {
			return n, nil
		}
		if e.To <= to {
			n++
		}
		cur = e.From + 1
	}
}

func (a *And) GetNth(i offset.Offset) (offset.Extent, bool) {
	return offset.Extent{}, false
}

func (a *And) IsSecure() bool {
	for _, c := range a.Children {
		if !c.IsSecure() {
			return false
		}
	}
	return true
}

func (a *And) IsAlmostSecure() bool {
	for _, c := range a.Children {
		if !c.IsAlmostSecure() {
			return false
		}
	}
	return true
}

func (a *And) MakeAlmostSecure(visible postings.VisibleSet) postings.List {
	wrapped := make([]postings.List, len(a.Children))
	for i, c := range a.Children {
		wrapped[i] = c.MakeAlmostSecure(visible)
	}
	return &And{Children: wrapped}
}

func (a *And) Optimize() postings.List {
	for i, c := range a.Children {
		a.Children[i] = c.Optimize()
	}
	return a
}
