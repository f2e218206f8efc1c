package codec

import (
	"math"

	"github.com/Aman-CERP/amanmcp/internal/offset"
)

// golombParam derives the Golomb parameter b from the gap frequency
// p = f/N (f = number of postings, N = total offset-space span covered),
// per spec §4.4: b = ceil(-log(2-p)/log(1-p)).
func golombParam(p float64) uint64 {
	if p <= 0 {
		return 1
	}
	if p >= 1 {
		return 1
	}
	b := math.Ceil(-math.Log(2-p) / math.Log(1-p))
	if b < 1 {
		b = 1
	}
	return uint64(b)
}

func writeGolomb(w *bitWriter, v uint64, b uint64) {
	q := v / b
	r := v % b
	w.writeUnary(int(q))
	c := bitLen(b - 1)
	if c == 0 {
		return
	}
	thresh := (uint64(1) << uint(c)) - b
	if r < thresh {
		w.writeBinary(r, c-1)
	} else {
		w.writeBinary(r+thresh, c)
	}
}

func readGolomb(r *bitReader, b uint64) (uint64, error) {
	q, err := r.readUnary()
	if err != nil {
		return 0, err
	}
	c := bitLen(b - 1)
	if c == 0 {
		return uint64(q) * b, nil
	}
	thresh := (uint64(1) << uint(c)) - b
	v, err := r.readBinary(c - 1)
	if err != nil {
		return 0, err
	}
	if v >= thresh {
		hi, err := r.readBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | uint64(hi)
		v -= thresh
	}
	return uint64(q)*b + v, nil
}

type golombCodec struct{}

func (golombCodec) encode(xs []offset.Offset) ([]byte, bool) {
	first, g := gaps(xs)
	n := len(g)
	var span, sum uint64
	for _, d := range g {
		sum += d
	}
	if n > 0 {
		span = sum + uint64(n)
	}
	p := 0.0
	if span > 0 {
		p = float64(n) / float64(span)
	}
	b := golombParam(p)

	w := &bitWriter{}
	w.writeBinary(uint64(first), 48)
	w.writeBinary(b, 48)
	for _, d := range g {
		writeGolomb(w, d, b)
	}
	return w.bytes(), false
}

func (golombCodec) decode(payload []byte, n int, fast bool, out []offset.Offset) error {
	r := newBitReader(payload, TagGolomb)
	first, err := r.readBinary(48)
	if err != nil {
		return err
	}
	b, err := r.readBinary(48)
	if err != nil {
		return err
	}
	if b == 0 {
		return &CorruptFrameError{Tag: TagGolomb, Reason: "zero Golomb parameter"}
	}
	g := make([]uint64, n-1)
	for i := 0; i < n-1; i++ {
		v, err := readGolomb(r, b)
		if err != nil {
			return err
		}
		g[i] = v
	}
	ungapInto(offset.Offset(first), g, out)
	return nil
}

func init() {
	register(TagGolomb, golombCodec{}, golombCodec{})
}
