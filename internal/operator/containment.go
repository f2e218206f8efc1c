package operator

import (
	"github.com/Aman-CERP/amanmcp/internal/offset"
	"github.com/Aman-CERP/amanmcp/internal/postings"
)

// ContainKind selects whether Containment tests A ⊐ B (A contains some
// extent of B) or A ⊏ B (A is contained by some extent of B).
type ContainKind int

const (
	// Contains is A ⊐ B.
	Contains ContainKind = iota
	// ContainedBy is A ⊏ B.
	ContainedBy
)

// Containment outputs the extents of A that do (or, with Negate, do
// not) stand in the Kind relation to some extent of B. It is advanced
// by querying both lists' directional primitives in lockstep: no
// extent of A is ever tested against more than the one or two extents
// of B its position can plausibly relate to (spec §4.3).
type Containment struct {
	A, B   postings.List
	Kind   ContainKind
	Negate bool
}

func (c *Containment) holds(a offset.Extent) (bool, error) {
	switch c.Kind {
	case Contains:
		b, ok, err := c.B.FirstStartBiggerEq(a.From)
		if err != nil {
			return false, err
		}
		return ok && b.From <= a.To && b.To <= a.To, nil
	default: // ContainedBy
		b, ok, err := c.B.LastStartSmallerEq(a.From)
		if err != nil {
			return false, err
		}
		return ok && b.To >= a.To, nil
	}
}

func (c *Containment) test(a offset.Extent) (bool, error) {
	h, err := c.holds(a)
	if err != nil {
		return false, err
	}
	if c.Negate {
		return !h, nil
	}
	return h, nil
}

func (c *Containment) FirstStartBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	cur := p
	for {
		a, ok, err := c.A.FirstStartBiggerEq(cur)
		if err != nil || !ok {
			return offset.Extent{}, false, err
		}
		match, err := c.test(a)
		if err != nil {
			return offset.Extent{}, false, err
		}
		if match {
			return a, true, nil
		}
		cur = a.From + 1
	}
}

func (c *Containment) FirstEndBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	cur := p
	for {
		a, ok, err := c.A.FirstEndBiggerEq(cur)
		if err != nil || !ok {
			return offset.Extent{}, false, err
		}
		match, err := c.test(a)
		if err != nil {
			return offset.Extent{}, false, err
		}
		if match {
			return a, true, nil
		}
		cur = a.To + 1
	}
}

func (c *Containment) LastStartSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	cur := p
	for {
		a, ok, err := c.A.LastStartSmallerEq(cur)
		if err != nil || !ok {
			return offset.Extent{}, false, err
		}
		match, err := c.test(a)
		if err != nil {
			return offset.Extent{}, false, err
		}
		if match {
			return a, true, nil
		}
		cur = a.From - 1
	}
}

func (c *Containment) LastEndSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	cur := p
	for {
		a, ok, err := c.A.LastEndSmallerEq(cur)
		if err != nil || !ok {
			return offset.Extent{}, false, err
		}
		match, err := c.test(a)
		if err != nil {
			return offset.Extent{}, false, err
		}
		if match {
			return a, true, nil
		}
		cur = a.To - 1
	}
}

func (c *Containment) NextN(from, to offset.Offset, out []offset.Extent) (int, error) {
	count := 0
	cur := from
	for count < len(out) {
		e, ok, err := c.FirstStartBiggerEq(cur)
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

func (c *Containment) Length() (offset.Offset, error) { return c.Count(0, offset.MaxOffset) }

func (c *Containment) Count(from, to offset.Offset) (offset.Offset, error) {
	var n offset.Offset
	cur := from
	for {
		e, ok, err := c.FirstStartBiggerEq(cur)
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

func (c *Containment) GetNth(i offset.Offset) (offset.Extent, bool) { return offset.Extent{}, false }

func (c *Containment) IsSecure() bool       { return c.A.IsSecure() && c.B.IsSecure() }
func (c *Containment) IsAlmostSecure() bool { return c.A.IsAlmostSecure() && c.B.IsAlmostSecure() }

func (c *Containment) MakeAlmostSecure(visible postings.VisibleSet) postings.List {
	return &Containment{
		A:      c.A.MakeAlmostSecure(visible),
		B:      c.B.MakeAlmostSecure(visible),
		Kind:   c.Kind,
		Negate: c.Negate,
	}
}

func (c *Containment) Optimize() postings.List {
	c.A = c.A.Optimize()
	c.B = c.B.Optimize()
	return c
}
