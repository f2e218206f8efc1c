package codec

import "github.com/Aman-CERP/amanmcp/internal/offset"

// gammaCodec implements Elias-gamma coding of gap+1 (gamma requires
// strictly positive integers; a zero gap is impossible for strictly
// increasing offsets once duplicates are excluded by the posting-list
// antichain invariant, but the first value may legitimately be 0, so it
// is handled separately as a raw absolute binary-32 field).
type gammaCodec struct{}

func (gammaCodec) encode(xs []offset.Offset) ([]byte, bool) {
	first, g := gaps(xs)
	w := &bitWriter{}
	w.writeBinary(uint64(first), 48)
	for _, d := range g {
		v := d + 1
		n := bitLen(v) - 1
		w.writeUnary(n)
		if n > 0 {
			w.writeBinary(v, n)
		}
	}
	return w.bytes(), false
}

func (gammaCodec) decode(payload []byte, n int, fast bool, out []offset.Offset) error {
	r := newBitReader(payload, TagGamma)
	first, err := r.readBinary(48)
	if err != nil {
		return err
	}
	g := make([]uint64, n-1)
	for i := 0; i < n-1; i++ {
		nb, err := r.readUnary()
		if err != nil {
			return err
		}
		var rest uint64
		if nb > 0 {
			rest, err = r.readBinary(nb)
			if err != nil {
				return err
			}
		}
		v := (uint64(1) << nb) | rest
		g[i] = v - 1
	}
	ungapInto(offset.Offset(first), g, out)
	return nil
}

func init() {
	register(TagGamma, gammaCodec{}, gammaCodec{})
}
