package codec

import (
	"encoding/binary"

	"github.com/Aman-CERP/amanmcp/internal/offset"
)

// simple9Layouts lists, for selectors 0..7, how many values fit in the
// 28 data bits of a 32-bit word and the per-value bit width. Selector 8
// is reserved as an escape: the word's low 28 bits are ignored and a
// single raw 64-bit gap follows in the next 8 bytes. This keeps Simple-9
// well-defined for the rare gap that exceeds 28 bits, which a pure
// 9-selector table cannot represent without an escape (our offset space
// goes up to 2^47).
var simple9Layouts = [8]struct {
	count int
	width int
}{
	{28, 1}, {14, 2}, {9, 3}, {7, 4}, {5, 5},
	{4, 7}, {3, 9}, {2, 14},
}

const simple9Escape = 8

type simple9Codec struct{}

func (simple9Codec) encode(xs []offset.Offset) ([]byte, bool) {
	first, g := gaps(xs)
	buf := appendVByte(nil, uint64(first))

	i := 0
	for i < len(g) {
		if g[i] >= uint64(1)<<28 {
			// escape: single raw 64-bit gap
			var wbuf [4]byte
			binary.LittleEndian.PutUint32(wbuf[:], uint32(simple9Escape)<<28)
			buf = append(buf, wbuf[:]...)
			var gbuf [8]byte
			binary.LittleEndian.PutUint64(gbuf[:], g[i])
			buf = append(buf, gbuf[:]...)
			i++
			continue
		}
		bestSel := len(simple9Layouts) - 1
		for sel, layout := range simple9Layouts {
			cnt := layout.count
			if i+cnt > len(g) {
				cnt = len(g) - i
			}
			ok := true
			maxV := uint64(1) << uint(layout.width)
			for j := 0; j < cnt; j++ {
				if g[i+j] >= maxV {
					ok = false
					break
				}
			}
			if ok {
				bestSel = sel
				break
			}
		}
		layout := simple9Layouts[bestSel]
		cnt := layout.count
		if i+cnt > len(g) {
			cnt = len(g) - i
		}
		word := uint32(bestSel) << 28
		for j := 0; j < cnt; j++ {
			word |= uint32(g[i+j]) << uint(j*layout.width)
		}
		var wbuf [4]byte
		binary.LittleEndian.PutUint32(wbuf[:], word)
		buf = append(buf, wbuf[:]...)
		i += cnt
	}
	return buf, false
}

func (simple9Codec) decode(payload []byte, n int, fast bool, out []offset.Offset) error {
	first, rest, err := readVByte(payload)
	if err != nil {
		return err
	}
	g := make([]uint64, 0, n-1)
	for len(g) < n-1 {
		if len(rest) < 4 {
			return &CorruptFrameError{Tag: TagSimple9, Reason: "truncated simple9 word"}
		}
		word := binary.LittleEndian.Uint32(rest[:4])
		rest = rest[4:]
		sel := word >> 28
		if sel == simple9Escape {
			if len(rest) < 8 {
				return &CorruptFrameError{Tag: TagSimple9, Reason: "truncated simple9 escape"}
			}
			g = append(g, binary.LittleEndian.Uint64(rest[:8]))
			rest = rest[8:]
			continue
		}
		if int(sel) >= len(simple9Layouts) {
			return &CorruptFrameError{Tag: TagSimple9, Reason: "invalid selector"}
		}
		layout := simple9Layouts[sel]
		mask := uint32(1)<<uint(layout.width) - 1
		for j := 0; j < layout.count && len(g) < n-1; j++ {
			v := (word >> uint(j*layout.width)) & mask
			g = append(g, uint64(v))
		}
	}
	ungapInto(offset.Offset(first), g, out)
	return nil
}

func init() {
	register(TagSimple9, simple9Codec{}, simple9Codec{})
}
