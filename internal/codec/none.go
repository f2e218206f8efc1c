package codec

import (
	"encoding/binary"

	"github.com/Aman-CERP/amanmcp/internal/offset"
)

// noneCodec stores raw 32-bit gaps with a 1-bit escape for gaps that
// don't fit 31 bits, per spec §4.4 ("None: raw 32-bit gaps with a 1-bit
// escape for >= 2^31").
type noneCodec struct{}

func (noneCodec) encode(xs []offset.Offset) ([]byte, bool) {
	first, g := gaps(xs)
	buf := appendVByte(nil, uint64(first))
	for _, d := range g {
		if d < 1<<31 {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], uint32(d)<<1)
			buf = append(buf, b[:]...)
		} else {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], 1) // escape bit set, low 31 bits unused
			buf = append(buf, b[:]...)
			var full [8]byte
			binary.LittleEndian.PutUint64(full[:], d)
			buf = append(buf, full[:]...)
		}
	}
	return buf, false
}

func (noneCodec) decode(payload []byte, n int, fast bool, out []offset.Offset) error {
	first, rest, err := readVByte(payload)
	if err != nil {
		return err
	}
	g := make([]uint64, n-1)
	for i := 0; i < n-1; i++ {
		if len(rest) < 4 {
			return &CorruptFrameError{Tag: TagNone, Reason: "truncated word"}
		}
		word := binary.LittleEndian.Uint32(rest[:4])
		rest = rest[4:]
		if word&1 == 0 {
			g[i] = uint64(word >> 1)
			continue
		}
		if len(rest) < 8 {
			return &CorruptFrameError{Tag: TagNone, Reason: "truncated escape value"}
		}
		g[i] = binary.LittleEndian.Uint64(rest[:8])
		rest = rest[8:]
	}
	ungapInto(offset.Offset(first), g, out)
	return nil
}

func init() {
	register(TagNone, noneCodec{}, noneCodec{})
}
