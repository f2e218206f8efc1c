package postings

import "github.com/Aman-CERP/amanmcp/internal/offset"

// Empty is the posting list with no extents: every directional query
// reports "not found", never an error.
type Empty struct{}

func (Empty) FirstStartBiggerEq(offset.Offset) (offset.Extent, bool, error) { return offset.Extent{}, false, nil }
func (Empty) FirstEndBiggerEq(offset.Offset) (offset.Extent, bool, error)   { return offset.Extent{}, false, nil }
func (Empty) LastStartSmallerEq(offset.Offset) (offset.Extent, bool, error) { return offset.Extent{}, false, nil }
func (Empty) LastEndSmallerEq(offset.Offset) (offset.Extent, bool, error)   { return offset.Extent{}, false, nil }

func (Empty) NextN(from, to offset.Offset, out []offset.Extent) (int, error) { return 0, nil }
func (Empty) Length() (offset.Offset, error)                                 { return 0, nil }
func (Empty) Count(from, to offset.Offset) (offset.Offset, error)            { return 0, nil }
func (Empty) GetNth(i offset.Offset) (offset.Extent, bool)                   { return offset.Extent{}, false }

func (Empty) IsSecure() bool                              { return true }
func (Empty) IsAlmostSecure() bool                         { return true }
func (e Empty) MakeAlmostSecure(visible VisibleSet) List   { return e }
func (e Empty) Optimize() List                             { return e }
