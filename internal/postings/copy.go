package postings

import "github.com/Aman-CERP/amanmcp/internal/offset"

// Copy delegates every call to an underlying list without taking
// ownership of it, so the same list can be shared across several
// operator subtrees (or threads, each via its own Copy) without double
// frees or shared-cursor races (spec §4.2, §5).
type Copy struct {
	Underlying List
}

func (c Copy) FirstStartBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	return c.Underlying.FirstStartBiggerEq(p)
}
func (c Copy) FirstEndBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	return c.Underlying.FirstEndBiggerEq(p)
}
func (c Copy) LastStartSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	return c.Underlying.LastStartSmallerEq(p)
}
func (c Copy) LastEndSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	return c.Underlying.LastEndSmallerEq(p)
}
func (c Copy) NextN(from, to offset.Offset, out []offset.Extent) (int, error) {
	return c.Underlying.NextN(from, to, out)
}
func (c Copy) Length() (offset.Offset, error)              { return c.Underlying.Length() }
func (c Copy) Count(from, to offset.Offset) (offset.Offset, error) { return c.Underlying.Count(from, to) }
func (c Copy) GetNth(i offset.Offset) (offset.Extent, bool) { return c.Underlying.GetNth(i) }
func (c Copy) IsSecure() bool                               { return c.Underlying.IsSecure() }
func (c Copy) IsAlmostSecure() bool                          { return c.Underlying.IsAlmostSecure() }
func (c Copy) MakeAlmostSecure(visible VisibleSet) List {
	return Copy{Underlying: c.Underlying.MakeAlmostSecure(visible)}
}
func (c Copy) Optimize() List { return c }
