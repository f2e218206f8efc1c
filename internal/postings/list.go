// Package postings implements the posting-list kinds of the gcl core:
// every algebraic operator and the ranker is expressed purely in terms
// of the List interface's four directional queries, never by linear
// rescans of an entire list.
package postings

import (
	"fmt"

	"github.com/Aman-CERP/amanmcp/internal/offset"
)

// List is the interface every posting list kind implements. All methods
// that can legitimately find nothing (list exhausted, or the query
// point is outside the list's range) report that via the bool return,
// not an error: err is reserved for genuine faults (a corrupt
// compressed frame, an I/O failure reloading a segment).
//
// Implementations must be monotone-friendly: a caller that issues the
// four directional queries with a non-decreasing p must see amortised
// O(1) work per call, via a cursor advanced by exponential-then-binary
// search, never by rescanning from the start.
type List interface {
	// FirstStartBiggerEq returns the smallest extent with From >= p.
	FirstStartBiggerEq(p offset.Offset) (offset.Extent, bool, error)
	// FirstEndBiggerEq returns the smallest extent with To >= p.
	FirstEndBiggerEq(p offset.Offset) (offset.Extent, bool, error)
	// LastStartSmallerEq returns the largest extent with From <= p.
	LastStartSmallerEq(p offset.Offset) (offset.Extent, bool, error)
	// LastEndSmallerEq returns the largest extent with To <= p.
	LastEndSmallerEq(p offset.Offset) (offset.Extent, bool, error)
	// NextN fills out with up to len(out) extents satisfying
	// From >= from and To <= to, in ascending order, starting after
	// the list's current cursor position. It returns the number of
	// extents written; returning fewer than len(out) is only valid
	// when the list is exhausted within [from, to].
	NextN(from, to offset.Offset, out []offset.Extent) (int, error)
	// Length returns the total number of extents in the list.
	Length() (offset.Offset, error)
	// Count returns the number of extents fully within [from, to].
	Count(from, to offset.Offset) (offset.Offset, error)
	// GetNth returns the i-th extent (0-based) if random access is
	// supported; ok is false for streaming lists that cannot answer
	// without a linear scan.
	GetNth(i offset.Offset) (e offset.Extent, ok bool)
	// IsSecure reports whether a visibility wrapper is the outermost
	// node above this list.
	IsSecure() bool
	// IsAlmostSecure reports whether the visibility filter has already
	// been pushed down to every leaf, even if no single outermost
	// wrapper exists.
	IsAlmostSecure() bool
	// MakeAlmostSecure wraps the list so extents outside visible are
	// excluded, returning the wrapped list.
	MakeAlmostSecure(visible VisibleSet) List
	// Optimize is an optional hint that the list may precompute or
	// re-encode its internal representation; implementations that have
	// nothing to gain return themselves unchanged.
	Optimize() List
}

// VisibleSet is the minimal view a posting list needs of a visibility
// table (spec §4.7) to filter its own output: for a candidate extent,
// report whether some visible range fully contains it. visibility.Table
// implements this; operator.Containment composes the full A ⊐ B form
// when both sides are ordinary posting lists.
type VisibleSet interface {
	ContainsExtent(e offset.Extent) bool
}

// Fault is the error postings operations return for a genuine internal
// failure (corrupt compressed frame, reload I/O error) as opposed to a
// legitimate "not found". Kind matches the core's error taxonomy
// (spec §7); callers map it onto the structured error type at the API
// boundary.
type Fault struct {
	Kind offset.Kind
	Op   string
	Err  error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("postings: %s: %s: %v", f.Op, f.Kind, f.Err)
	}
	return fmt.Sprintf("postings: %s: %s", f.Op, f.Kind)
}

func (f *Fault) Unwrap() error { return f.Err }

func internalFault(op string, err error) error {
	return &Fault{Kind: offset.KindInternalError, Op: op, Err: err}
}
