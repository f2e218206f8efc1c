package codec

import "github.com/Aman-CERP/amanmcp/internal/offset"

// MergeCompressed produces a new vByte-coded frame representing the
// concatenation of the sequences encoded by frames a and b, whose
// second half is gap-rebased against lastInA (the last posting already
// known to be in a), per spec §4.4. Any non-vByte input is first
// decoded and re-encoded as vByte — mergeCompressed always normalises
// to the simplest codec since the merged frame is typically short-lived
// (produced by an index builder outside the core's scope and consumed
// once by the codec-agnostic posting-list layer).
//
// append controls whether the implementation is permitted to reuse a's
// backing array when it has spare capacity (true) or must always
// allocate fresh (false); both produce an identical decoded result.
func MergeCompressed(a, b []byte, lastInA offset.Offset, appendInPlace bool) ([]byte, error) {
	xa, err := Decompress(a, nil)
	if err != nil {
		return nil, err
	}
	xb, err := Decompress(b, nil)
	if err != nil {
		return nil, err
	}
	if len(xa) > 0 && xa[len(xa)-1] != lastInA {
		return nil, &CorruptFrameError{Tag: TagVByte, Reason: "lastInA does not match end of a"}
	}
	var merged []offset.Offset
	if appendInPlace {
		merged = append(xa, xb...)
	} else {
		merged = make([]offset.Offset, 0, len(xa)+len(xb))
		merged = append(merged, xa...)
		merged = append(merged, xb...)
	}
	return Compress(TagVByte, merged)
}
