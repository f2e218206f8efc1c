package codec

import "github.com/Aman-CERP/amanmcp/internal/offset"

// groupVarIntCodec packs one selector byte (2 bits per value, selecting
// a byte-length from {1,2,4,8}) followed by four variable-width gaps,
// per spec §4.4. 8-byte slots cover the rare gap too large for 32 bits
// (the offset space spans up to 2^47). The final, possibly partial,
// group of fewer than four values still spends a full selector byte;
// only the first n-1 decoded gaps are kept.
var groupVarIntLens = [4]int{1, 2, 4, 8}

type groupVarIntCodec struct{}

func groupVarIntCodeFor(v uint64) byte {
	switch {
	case v < 1<<8:
		return 0
	case v < 1<<16:
		return 1
	case v < 1<<32:
		return 2
	default:
		return 3
	}
}

func (groupVarIntCodec) encode(xs []offset.Offset) ([]byte, bool) {
	first, g := gaps(xs)
	buf := appendVByte(nil, uint64(first))

	allSmall := true
	for i := 0; i < len(g); i += 4 {
		var selector byte
		n := 4
		if i+n > len(g) {
			n = len(g) - i
		}
		codes := make([]byte, n)
		for j := 0; j < n; j++ {
			c := groupVarIntCodeFor(g[i+j])
			if c > 1 {
				allSmall = false
			}
			codes[j] = c
			selector |= c << uint(j*2)
		}
		buf = append(buf, selector)
		for j := 0; j < n; j++ {
			v := g[i+j]
			l := groupVarIntLens[codes[j]]
			for k := 0; k < l; k++ {
				buf = append(buf, byte(v>>(uint(k)*8)))
			}
		}
	}
	return buf, allSmall
}

func (groupVarIntCodec) decode(payload []byte, n int, fast bool, out []offset.Offset) error {
	g := make([]uint64, 0, n-1)
	first, rest, err := readVByte(payload)
	if err != nil {
		return err
	}
	for len(g) < n-1 {
		if len(rest) < 1 {
			return &CorruptFrameError{Tag: TagGroupVarInt, Reason: "truncated selector"}
		}
		selector := rest[0]
		rest = rest[1:]
		remaining := (n - 1) - len(g)
		cnt := 4
		if remaining < cnt {
			cnt = remaining
		}
		for j := 0; j < cnt; j++ {
			code := (selector >> uint(j*2)) & 0x3
			l := groupVarIntLens[code]
			if l > len(rest) {
				return &CorruptFrameError{Tag: TagGroupVarInt, Reason: "truncated gap bytes"}
			}
			var v uint64
			for k := 0; k < l; k++ {
				v |= uint64(rest[k]) << (uint(k) * 8)
			}
			rest = rest[l:]
			g = append(g, v)
		}
	}
	ungapInto(offset.Offset(first), g, out)
	return nil
}

func init() {
	register(TagGroupVarInt, groupVarIntCodec{}, groupVarIntCodec{})
}
