package codec

import "github.com/Aman-CERP/amanmcp/internal/offset"

// deltaCodec implements Elias-delta coding: the gamma-coded bit length
// prefixes the raw remaining bits, giving better compression than pure
// gamma for larger gaps at the cost of a slightly heavier header.
type deltaCodec struct{}

func writeDelta(w *bitWriter, v uint64) {
	n := bitLen(v) - 1 // v >= 1
	// gamma-code (n+1)
	m := n + 1
	gn := bitLen(uint64(m)) - 1
	w.writeUnary(gn)
	if gn > 0 {
		w.writeBinary(uint64(m), gn)
	}
	if n > 0 {
		w.writeBinary(v, n)
	}
}

func readDelta(r *bitReader) (uint64, error) {
	gn, err := r.readUnary()
	if err != nil {
		return 0, err
	}
	var rest uint64
	if gn > 0 {
		rest, err = r.readBinary(gn)
		if err != nil {
			return 0, err
		}
	}
	m := (uint64(1) << gn) | rest
	n := int(m - 1)
	var tail uint64
	if n > 0 {
		tail, err = r.readBinary(n)
		if err != nil {
			return 0, err
		}
	}
	return (uint64(1) << n) | tail, nil
}

type deltaCodecT struct{}

func (deltaCodecT) encode(xs []offset.Offset) ([]byte, bool) {
	first, g := gaps(xs)
	w := &bitWriter{}
	w.writeBinary(uint64(first), 48)
	for _, d := range g {
		writeDelta(w, d+1)
	}
	return w.bytes(), false
}

func (deltaCodecT) decode(payload []byte, n int, fast bool, out []offset.Offset) error {
	r := newBitReader(payload, TagDelta)
	first, err := r.readBinary(48)
	if err != nil {
		return err
	}
	g := make([]uint64, n-1)
	for i := 0; i < n-1; i++ {
		v, err := readDelta(r)
		if err != nil {
			return err
		}
		g[i] = v - 1
	}
	ungapInto(offset.Offset(first), g, out)
	return nil
}

func init() {
	register(TagDelta, deltaCodecT{}, deltaCodecT{})
}
