package codec

import (
	"math"

	"github.com/Aman-CERP/amanmcp/internal/offset"
)

// riceCodec is Golomb coding restricted to a power-of-two parameter,
// letting the remainder be read as a plain fixed-width binary field
// instead of Golomb's truncated-binary split (spec §4.4).
type riceCodec struct{}

func riceParam(mean float64) uint {
	if mean < 1 {
		return 0
	}
	return uint(math.Max(0, math.Round(math.Log2(mean))))
}

func (riceCodec) encode(xs []offset.Offset) ([]byte, bool) {
	first, g := gaps(xs)
	var sum uint64
	for _, d := range g {
		sum += d
	}
	mean := 0.0
	if len(g) > 0 {
		mean = float64(sum) / float64(len(g))
	}
	k := riceParam(mean)

	w := &bitWriter{}
	w.writeBinary(uint64(first), 48)
	w.writeBinary(uint64(k), 8)
	for _, d := range g {
		q := d >> k
		w.writeUnary(int(q))
		if k > 0 {
			w.writeBinary(d&((1<<k)-1), int(k))
		}
	}
	return w.bytes(), false
}

func (riceCodec) decode(payload []byte, n int, fast bool, out []offset.Offset) error {
	r := newBitReader(payload, TagRice)
	first, err := r.readBinary(48)
	if err != nil {
		return err
	}
	kv, err := r.readBinary(8)
	if err != nil {
		return err
	}
	k := uint(kv)
	g := make([]uint64, n-1)
	for i := 0; i < n-1; i++ {
		q, err := r.readUnary()
		if err != nil {
			return err
		}
		var rem uint64
		if k > 0 {
			rem, err = r.readBinary(int(k))
			if err != nil {
				return err
			}
		}
		g[i] = uint64(q)<<k | rem
	}
	ungapInto(offset.Offset(first), g, out)
	return nil
}

func init() {
	register(TagRice, riceCodec{}, riceCodec{})
}
