package codec

import (
	"encoding/binary"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/Aman-CERP/amanmcp/internal/offset"
)

// pforDeltaCodec packs gaps at a fixed bit-width b chosen to cover at
// least 95% of the values (spec §4.4); gaps too large for b bits are
// recorded as exceptions: a bitset flags their position (grounded on
// the original's `compressPforDelta`, here made explicit rather than
// inferred from a sentinel) and a trailing list of high_bits, one per
// set bit in position order, supplies the missing high bits. Per the
// spec's open question on trailing padding, this implementation always
// pads its bit-packed region to a whole byte rather than relying on a
// compile-time flag, so a truncated frame is always caught by length
// checks instead of silently over-reading.
type pforDeltaCodec struct{}

// chooseWidth returns the smallest b such that at least 95% of gaps fit
// in b bits (clamped to the observed maximum width when fewer values
// exist than would make the percentile meaningful).
func chooseWidth(g []uint64) int {
	if len(g) == 0 {
		return 0
	}
	widths := make([]int, len(g))
	for i, v := range g {
		widths[i] = bitLen(v)
	}
	sorted := append([]int(nil), widths...)
	sort.Ints(sorted)
	idx := (len(sorted) * 95) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	b := sorted[idx]
	if b == 0 {
		b = 1
	}
	return b
}

func (pforDeltaCodec) encode(xs []offset.Offset) ([]byte, bool) {
	first, g := gaps(xs)
	b := chooseWidth(g)
	maxV := uint64(1) << uint(b)

	exc := bitset.New(uint(len(g)))
	var exceptionHigh []uint64

	w := &bitWriter{}
	w.writeBinary(uint64(first), 48)
	w.writeBinary(uint64(b), 8)
	for i, v := range g {
		if v >= maxV {
			exc.Set(uint(i))
			exceptionHigh = append(exceptionHigh, v>>uint(b))
			w.writeBinary(v&(maxV-1), b)
		} else {
			w.writeBinary(v, b)
		}
	}
	packed := w.bytes()

	excBytes, _ := exc.MarshalBinary()

	var out []byte
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(packed)))
	out = append(out, lenBuf[:]...)
	out = append(out, packed...)
	out = appendVByte(out, uint64(len(excBytes)))
	out = append(out, excBytes...)
	for _, h := range exceptionHigh {
		out = appendVByte(out, h)
	}
	return out, false
}

func (pforDeltaCodec) decode(payload []byte, n int, fast bool, out []offset.Offset) error {
	if len(payload) < 4 {
		return &CorruptFrameError{Tag: TagPForDelta, Reason: "truncated length header"}
	}
	packedLen := int(binary.LittleEndian.Uint32(payload[:4]))
	payload = payload[4:]
	if packedLen > len(payload) {
		return &CorruptFrameError{Tag: TagPForDelta, Reason: "packed region exceeds payload"}
	}
	packed := payload[:packedLen]
	rest := payload[packedLen:]

	r := newBitReader(packed, TagPForDelta)
	first, err := r.readBinary(48)
	if err != nil {
		return err
	}
	bv, err := r.readBinary(8)
	if err != nil {
		return err
	}
	b := int(bv)

	g := make([]uint64, n-1)
	for i := 0; i < n-1; i++ {
		v, err := r.readBinary(b)
		if err != nil {
			return err
		}
		g[i] = v
	}

	excLen, rest2, err := readVByte(rest)
	if err != nil {
		return err
	}
	if uint64(len(rest2)) < excLen {
		return &CorruptFrameError{Tag: TagPForDelta, Reason: "truncated exception bitset"}
	}
	exc := &bitset.BitSet{}
	if excLen > 0 {
		if err := exc.UnmarshalBinary(rest2[:excLen]); err != nil {
			return &CorruptFrameError{Tag: TagPForDelta, Reason: "malformed exception bitset: " + err.Error()}
		}
	}
	rest2 = rest2[excLen:]

	for i, e := exc.NextSet(0); e; i, e = exc.NextSet(i + 1) {
		if int(i) >= len(g) {
			return &CorruptFrameError{Tag: TagPForDelta, Reason: "exception position out of range"}
		}
		var high uint64
		high, rest2, err = readVByte(rest2)
		if err != nil {
			return err
		}
		g[i] |= high << uint(b)
	}

	ungapInto(offset.Offset(first), g, out)
	return nil
}

func init() {
	register(TagPForDelta, pforDeltaCodec{}, pforDeltaCodec{})
}
