package codec

import "github.com/Aman-CERP/amanmcp/internal/offset"

// interpolativeCodec implements binary-subdivision (Moffat & Stuiver)
// encoding: the first and last postings are stored absolutely, then the
// midpoint of each [lo,hi] range of r postings spanning [loVal,hiVal] is
// recursively encoded relative to the range it could possibly occupy,
// using the centred minimal binary code (one bit less than ceil(log2)
// when the value falls in the centred low range), per spec §4.4.
type interpolativeCodec struct{}

func (interpolativeCodec) encode(xs []offset.Offset) ([]byte, bool) {
	w := &bitWriter{}
	w.writeBinary(uint64(len(xs)), 32)
	if len(xs) == 0 {
		return w.bytes(), false
	}
	w.writeBinary(uint64(xs[0]), 48)
	w.writeBinary(uint64(xs[len(xs)-1]), 48)
	if len(xs) > 2 {
		encodeRange(w, xs, 1, len(xs)-2, int64(xs[0]), int64(xs[len(xs)-1]))
	}
	return w.bytes(), false
}

// encodeRange encodes xs[lo..hi] (inclusive indices into the original
// slice), knowing the true values lie strictly between loVal and hiVal.
func encodeRange(w *bitWriter, xs []offset.Offset, lo, hi int, loVal, hiVal int64) {
	if lo > hi {
		return
	}
	mid := (lo + hi) / 2
	// number of postings strictly before mid (inclusive of lo..mid-1)
	// and strictly after mid, used to tighten the admissible range for
	// the midpoint value via the count of intervening postings.
	left := mid - lo
	right := hi - mid
	low := loVal + int64(left) + 1
	high := hiVal - int64(right) - 1
	writeCenteredMinimalBinary(w, int64(xs[mid]), low, high)
	encodeRange(w, xs, lo, mid-1, loVal, int64(xs[mid]))
	encodeRange(w, xs, mid+1, hi, int64(xs[mid]), hiVal)
}

// writeCenteredMinimalBinary encodes v in [low,high] using ceil(log2(range))
// bits, or one bit fewer for values in the centred low sub-range (the
// canonical interpolative-coding trick for a range whose size is not a
// power of two).
func writeCenteredMinimalBinary(w *bitWriter, v, low, high int64) {
	span := high - low + 1
	if span <= 1 {
		return
	}
	b := bitLen(uint64(span - 1))
	d := v - low
	thresh := (int64(1) << uint(b)) - span
	if d < thresh {
		w.writeBinary(uint64(d), b-1)
	} else {
		w.writeBinary(uint64(d+thresh), b)
	}
}

func readCenteredMinimalBinary(r *bitReader, low, high int64) (int64, error) {
	span := high - low + 1
	if span <= 1 {
		return low, nil
	}
	b := bitLen(uint64(span - 1))
	thresh := (int64(1) << uint(b)) - span
	v, err := r.readBinary(b - 1)
	if err != nil {
		return 0, err
	}
	if int64(v) >= thresh {
		hi, err := r.readBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | uint64(hi)
		v -= uint64(thresh)
	}
	return low + int64(v), nil
}

func decodeRange(r *bitReader, out []offset.Offset, lo, hi int, loVal, hiVal int64) error {
	if lo > hi {
		return nil
	}
	mid := (lo + hi) / 2
	left := mid - lo
	right := hi - mid
	low := loVal + int64(left) + 1
	high := hiVal - int64(right) - 1
	v, err := readCenteredMinimalBinary(r, low, high)
	if err != nil {
		return err
	}
	out[mid] = offset.Offset(v)
	if err := decodeRange(r, out, lo, mid-1, loVal, v); err != nil {
		return err
	}
	return decodeRange(r, out, mid+1, hi, v, hiVal)
}

func (interpolativeCodec) decode(payload []byte, n int, fast bool, out []offset.Offset) error {
	r := newBitReader(payload, TagInterpolative)
	// n is redundant with the leading count field but re-derived from
	// the frame's own vByte count by Decompress; re-read here for
	// internal consistency and to detect corruption early.
	declared, err := r.readBinary(32)
	if err != nil {
		return err
	}
	if int(declared) != n {
		return &CorruptFrameError{Tag: TagInterpolative, Reason: "count mismatch"}
	}
	if n == 0 {
		return nil
	}
	firstV, err := r.readBinary(48)
	if err != nil {
		return err
	}
	lastV, err := r.readBinary(48)
	if err != nil {
		return err
	}
	out[0] = offset.Offset(firstV)
	out[n-1] = offset.Offset(lastV)
	if n > 2 {
		if err := decodeRange(r, out, 1, n-2, int64(firstV), int64(lastV)); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	register(TagInterpolative, interpolativeCodec{}, interpolativeCodec{})
}
