package codec

import (
	"github.com/Aman-CERP/amanmcp/internal/offset"
)

// llrunMaxLen is the canonical code length limit for LLRUN's selector
// alphabet (spec §4.4: "length-limited (<=10-bit) canonical Huffman").
const llrunMaxLen = 10

// llrunBuckets is the number of bit-length buckets LLRUN's alphabet
// spans: a gap can need up to 48 bits (the offset space is 2^47), so
// bucket b holds gaps with bitLen(gap+1) == b, b in [0,48].
const llrunBuckets = 49

type huffTable struct {
	lengths []int
	codes   []uint32
}

func buildHuffTable(freq []uint64) huffTable {
	lengths := buildCanonicalLengths(freq, llrunMaxLen)
	codes := canonicalCodes(lengths)
	return huffTable{lengths: lengths, codes: codes}
}

func (t huffTable) write(w *bitWriter, symbol int) {
	l := t.lengths[symbol]
	w.writeBinary(uint64(t.codes[symbol]), l)
}

// decodeEntry maps a (length,code) pair to its symbol for table-driven
// decode.
type decodeEntry struct {
	length int
	code   uint32
}

func (t huffTable) buildDecodeMap() map[decodeEntry]int {
	m := make(map[decodeEntry]int)
	for sym, l := range t.lengths {
		if l > 0 {
			m[decodeEntry{l, t.codes[sym]}] = sym
		}
	}
	return m
}

func (t huffTable) read(r *bitReader, dm map[decodeEntry]int, tag Tag) (int, error) {
	return t.readMax(r, dm, tag, llrunMaxLen)
}

func (t huffTable) readMax(r *bitReader, dm map[decodeEntry]int, tag Tag, maxLen int) (int, error) {
	var code uint32
	for l := 1; l <= maxLen; l++ {
		b, err := r.readBit()
		if err != nil {
			return 0, err
		}
		code = code<<1 | uint32(b)
		if sym, ok := dm[decodeEntry{l, code}]; ok {
			return sym, nil
		}
	}
	return 0, &CorruptFrameError{Tag: tag, Reason: "no matching huffman code"}
}

// llrunCodec buckets each gap by bit-length, Huffman-codes the bucket
// selector, then emits b-1 raw bits of the gap (the leading 1 bit of a
// b-bit number is implicit), per spec §4.4. A list of exactly one
// distinct bucket uses a fixed 10-bit marker instead of building a
// degenerate one-symbol table.
type llrunCodec struct{}

func bucketOf(gapPlus1 uint64) int {
	return bitLen(gapPlus1)
}

func (llrunCodec) encode(xs []offset.Offset) ([]byte, bool) {
	first, g := gaps(xs)
	freq := make([]uint64, llrunBuckets)
	buckets := make([]int, len(g))
	for i, d := range g {
		bk := bucketOf(d + 1)
		buckets[i] = bk
		freq[bk]++
	}

	distinct := 0
	var only int
	for b, f := range freq {
		if f > 0 {
			distinct++
			only = b
		}
	}

	w := &bitWriter{}
	w.writeBinary(uint64(first), 48)
	if distinct <= 1 {
		w.writeBit(1) // single-bucket marker
		w.writeBinary(uint64(only), 10)
		for _, d := range g {
			if only > 1 {
				w.writeBinary(d+1-(uint64(1)<<uint(only-1)), only-1)
			}
		}
		return w.bytes(), false
	}
	w.writeBit(0)
	table := buildHuffTable(freq)
	for b := 0; b < llrunBuckets; b++ {
		w.writeBinary(uint64(table.lengths[b]), 4)
	}
	for i, d := range g {
		bk := buckets[i]
		table.write(w, bk)
		if bk > 1 {
			w.writeBinary(d+1-(uint64(1)<<uint(bk-1)), bk-1)
		}
	}
	return w.bytes(), false
}

func (llrunCodec) decode(payload []byte, n int, fast bool, out []offset.Offset) error {
	r := newBitReader(payload, TagLLRun)
	first, err := r.readBinary(48)
	if err != nil {
		return err
	}
	single, err := r.readBit()
	if err != nil {
		return err
	}
	g := make([]uint64, n-1)
	if single == 1 {
		bkv, err := r.readBinary(10)
		if err != nil {
			return err
		}
		bk := int(bkv)
		for i := 0; i < n-1; i++ {
			var rest uint64
			if bk > 1 {
				rest, err = r.readBinary(bk - 1)
				if err != nil {
					return err
				}
			}
			g[i] = (uint64(1)<<uint(bk-1) + rest) - 1
		}
		ungapInto(offset.Offset(first), g, out)
		return nil
	}
	lengths := make([]int, llrunBuckets)
	for b := 0; b < llrunBuckets; b++ {
		v, err := r.readBinary(4)
		if err != nil {
			return err
		}
		lengths[b] = int(v)
	}
	codes := canonicalCodes(lengths)
	table := huffTable{lengths: lengths, codes: codes}
	dm := table.buildDecodeMap()
	for i := 0; i < n-1; i++ {
		bk, err := table.read(r, dm, TagLLRun)
		if err != nil {
			return err
		}
		var rest uint64
		if bk > 1 {
			rest, err = r.readBinary(bk - 1)
			if err != nil {
				return err
			}
		}
		g[i] = (uint64(1)<<uint(bk-1) + rest) - 1
	}
	ungapInto(offset.Offset(first), g, out)
	return nil
}

func init() {
	register(TagLLRun, llrunCodec{}, llrunCodec{})
}
