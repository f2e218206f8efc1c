// Package offset defines the global token-offset space shared by every
// posting list, codec, and operator in the gcl core.
package offset

import "fmt"

// Offset is a position in the global token-offset space. Every document
// in the indexed corpus occupies a disjoint, contiguous range of offsets;
// gaps between documents are reserved so each document begins at a
// multiple of Granularity.
type Offset int64

// MaxOffset is the largest representable offset: 2^47 - 1.
const MaxOffset Offset = (1 << 47) - 1

// Granularity is the alignment every document's first offset is a
// multiple of, leaving room for per-document padding between documents.
const Granularity Offset = 1 << 12

// DocLevelShift is the number of low bits of a document-level posting
// that hold the encoded term frequency; the remaining high bits hold the
// document number.
const DocLevelShift = 5

// MaxEncodedTF is the largest value encodeTF/decodeTF can produce or
// accept: the TF field is DocLevelShift bits wide.
const MaxEncodedTF = (1 << DocLevelShift) - 1

// Extent is an inclusive half-open-free span [From, To] in the offset
// space: both endpoints are inclusive token positions.
type Extent struct {
	From Offset
	To   Offset
}

// Valid reports whether the extent respects From <= To.
func (e Extent) Valid() bool { return e.From <= e.To }

// Len returns the number of tokens spanned by the extent.
func (e Extent) Len() Offset { return e.To - e.From + 1 }

// Contains reports whether e fully contains o.
func (e Extent) Contains(o Extent) bool {
	return e.From <= o.From && o.To <= e.To
}

// String implements fmt.Stringer for debugging and test failure output.
func (e Extent) String() string {
	return fmt.Sprintf("(%d,%d)", e.From, e.To)
}

// tfTable is the quasi-logarithmic decode table for document-level TF
// quantisation: identity for the first 16 codes, then geometric growth
// with base ~1.15 up to a ceiling. Built once at init time.
var tfTable [MaxEncodedTF + 1]uint32

func init() {
	for i := 0; i <= 15; i++ {
		tfTable[i] = uint32(i)
	}
	v := float64(15)
	for i := 16; i <= MaxEncodedTF; i++ {
		v *= 1.15
		tfTable[i] = uint32(v)
	}
	// Guarantee strict monotonicity even where the geometric growth
	// rounds two consecutive codes to the same integer.
	for i := 16; i <= MaxEncodedTF; i++ {
		if tfTable[i] <= tfTable[i-1] {
			tfTable[i] = tfTable[i-1] + 1
		}
	}
}

// DecodeTF maps a 5-bit encoded term frequency to its approximate raw
// value using the fixed quasi-logarithmic table.
func DecodeTF(code uint32) uint32 {
	if code > MaxEncodedTF {
		code = MaxEncodedTF
	}
	return tfTable[code]
}

// EncodeTF maps a raw term frequency to the largest encoded code whose
// decoded value does not exceed it (a floor search over the table).
func EncodeTF(raw uint32) uint32 {
	if raw <= 15 {
		return raw
	}
	lo, hi := 16, MaxEncodedTF
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if tfTable[mid] <= raw {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return uint32(lo)
}

// PackDocLevel combines a document number and a raw term frequency into
// a single document-level posting value.
func PackDocLevel(docNumber uint64, rawTF uint32) Offset {
	code := EncodeTF(rawTF)
	return Offset(docNumber<<DocLevelShift | Offset(code))
}

// UnpackDocLevel splits a document-level posting value back into its
// document number and decoded term frequency.
func UnpackDocLevel(v Offset) (docNumber uint64, tf uint32) {
	docNumber = uint64(v) >> DocLevelShift
	tf = DecodeTF(uint32(v) & MaxEncodedTF)
	return
}

// Kind classifies the errors the core surfaces to callers (spec §6/§7).
type Kind int

const (
	// KindExhausted is not a fault: a directional query found no match.
	KindExhausted Kind = iota
	// KindEmptyList is not a fault: the list legitimately has no extents.
	KindEmptyList
	KindSyntax
	KindShuttingDown
	KindAccessDenied
	KindInternalError
	KindReadOnly
	KindConcurrentUpdate
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindExhausted:
		return "exhausted"
	case KindEmptyList:
		return "empty_list"
	case KindSyntax:
		return "syntax"
	case KindShuttingDown:
		return "shutting_down"
	case KindAccessDenied:
		return "access_denied"
	case KindInternalError:
		return "internal_error"
	case KindReadOnly:
		return "read_only"
	case KindConcurrentUpdate:
		return "concurrent_update"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
