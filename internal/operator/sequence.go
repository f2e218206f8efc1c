package operator

import (
	"github.com/Aman-CERP/amanmcp/internal/offset"
	"github.com/Aman-CERP/amanmcp/internal/postings"
)

// Sequence matches phrases: children C0..Ck-1 match iff there are
// adjacent extents e0..ek-1, one per child in order, with
// ei.From = ei-1.To + 1. A mismatch at child i restarts the whole
// search not from i's own position but from the tail: the candidate
// start implied by child i's actual match, so the search never
// rescans tokens it has already ruled out (spec §4.3).
type Sequence struct {
	Children []postings.List
}

func (s *Sequence) matchFrom(p offset.Offset) (offset.Extent, bool, error) {
	k := len(s.Children)
	if k == 0 {
		return offset.Extent{}, false, nil
	}
	start := p
	for {
		pos := start
		var firstFrom, lastTo offset.Offset
		cumLen := offset.Offset(0)
		restarted := false
		for i := 0; i < k; i++ {
			e, ok, err := s.Children[i].FirstStartBiggerEq(pos)
			if err != nil {
				return offset.Extent{}, false, err
			}
			if !ok {
				return offset.Extent{}, false, nil
			}
			if e.From != pos {
				if i == 0 {
					start = e.From
				} else {
					start = e.From - cumLen
				}
				restarted = true
				break
			}
			if i == 0 {
				firstFrom = e.From
			}
			lastTo = e.To
			cumLen += e.Len()
			pos = e.To + 1
		}
		if !restarted {
			return offset.Extent{From: firstFrom, To: lastTo}, true, nil
		}
	}
}

func (s *Sequence) matchUpTo(p offset.Offset) (offset.Extent, bool, error) {
	k := len(s.Children)
	if k == 0 {
		return offset.Extent{}, false, nil
	}
	end := p
	for {
		pos := end
		var firstFrom, lastTo offset.Offset
		cumLen := offset.Offset(0)
		restarted := false
		for i := k - 1; i >= 0; i-- {
			e, ok, err := s.Children[i].LastEndSmallerEq(pos)
			if err != nil {
				return offset.Extent{}, false, err
			}
			if !ok {
				return offset.Extent{}, false, nil
			}
			if e.To != pos {
				if i == k-1 {
					end = e.To
				} else {
					end = e.To + cumLen
				}
				restarted = true
				break
			}
			if i == k-1 {
				lastTo = e.To
			}
			firstFrom = e.From
			cumLen += e.Len()
			pos = e.From - 1
		}
		if !restarted {
			return offset.Extent{From: firstFrom, To: lastTo}, true, nil
		}
	}
}

func (s *Sequence) FirstStartBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	return s.matchFrom(p)
}

func (s *Sequence) FirstEndBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	cur := offset.Offset(0)
	for {
		e, ok, err := s.matchFrom(cur)
		if err != nil || !ok {
			return offset.Extent{}, false, err
		}
		if e.To >= p {
			return e, true, nil
		}
		cur = e.From + 1
	}
}

func (s *Sequence) LastStartSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	cur := offset.MaxOffset
	for {
		e, ok, err := s.matchUpTo(cur)
		if err != nil || !ok {
			return offset.Extent{}, false, err
		}
		if e.From <= p {
			return e, true, nil
		}
		cur = e.To - 1
	}
}

func (s *Sequence) LastEndSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	return s.matchUpTo(p)
}

func (s *Sequence) NextN(from, to offset.Offset, out []offset.Extent) (int, error) {
	count := 0
	cur := from
	for count < len(out) {
		e, ok, err := s.matchFrom(cur)
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

func (s *Sequence) Length() (offset.Offset, error) { return s.Count(0, offset.MaxOffset) }

func (s *Sequence) Count(from, to offset.Offset) (offset.Offset, error) {
	var n offset.Offset
	cur := from
	for {
		e, ok, err := s.matchFrom(cur)
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

func (s *Sequence) GetNth(i offset.Offset) (offset.Extent, bool) { return offset.Extent{}, false }

func (s *Sequence) IsSecure() bool {
	for _, c := range s.Children {
		if !c.IsSecure() {
			return false
		}
	}
	return true
}

func (s *Sequence) IsAlmostSecure() bool {
	for _, c := range s.Children {
		if !c.IsAlmostSecure() {
			return false
		}
	}
	return true
}

func (s *Sequence) MakeAlmostSecure(visible postings.VisibleSet) postings.List {
	wrapped := make([]postings.List, len(s.Children))
	for i, c := range s.Children {
		wrapped[i] = c.MakeAlmostSecure(visible)
	}
	return &Sequence{Children: wrapped}
}

func (s *Sequence) Optimize() postings.List {
	for i, c := range s.Children {
		s.Children[i] = c.Optimize()
	}
	return s
}
