package codec

import (
	"github.com/Aman-CERP/amanmcp/internal/offset"
)

// appendVByte appends v as a 7-bit-per-byte variable-length integer,
// high bit set on every non-final byte (continuation).
func appendVByte(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// readVByte decodes a single vByte integer from the front of buf,
// returning the value and the remaining bytes.
func readVByte(buf []byte) (uint64, []byte, error) {
	var v uint64
	var shift uint
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, buf[i+1:], nil
		}
		shift += 7
		if shift > 63 {
			return 0, nil, &CorruptFrameError{Tag: TagVByte, Reason: "vbyte overflow"}
		}
	}
	return 0, nil, &CorruptFrameError{Tag: TagVByte, Reason: "truncated vbyte"}
}

// gaps converts a strictly increasing offset sequence into first-value
// plus successive gaps, the universal pre-processing step for every
// codec except Interpolative.
func gaps(xs []offset.Offset) (first offset.Offset, g []uint64) {
	if len(xs) == 0 {
		return 0, nil
	}
	first = xs[0]
	g = make([]uint64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		g[i-1] = uint64(xs[i] - xs[i-1])
	}
	return
}

// ungapInto reconstructs xs from a first value and successive gaps.
func ungapInto(first offset.Offset, g []uint64, out []offset.Offset) {
	if len(out) == 0 {
		return
	}
	out[0] = first
	prev := first
	for i, d := range g {
		prev += offset.Offset(d)
		out[i+1] = prev
	}
}

type vbyteCodec struct{}

func (vbyteCodec) encode(xs []offset.Offset) ([]byte, bool) {
	first, g := gaps(xs)
	allSmall := true
	for _, d := range g {
		if d > 127 {
			allSmall = false
			break
		}
	}
	buf := appendVByte(nil, uint64(first))
	for _, d := range g {
		buf = appendVByte(buf, d)
	}
	return buf, allSmall
}

func (vbyteCodec) decode(payload []byte, n int, fast bool, out []offset.Offset) error {
	first, rest, err := readVByte(payload)
	if err != nil {
		return err
	}
	g := make([]uint64, n-1)
	for i := 0; i < n-1; i++ {
		var v uint64
		v, rest, err = readVByte(rest)
		if err != nil {
			return err
		}
		g[i] = v
	}
	ungapInto(offset.Offset(first), g, out)
	return nil
}

func init() {
	register(TagVByte, vbyteCodec{}, vbyteCodec{})
}
