package codec

import "github.com/Aman-CERP/amanmcp/internal/offset"

// huffmanDirectMaxLen bounds canonical code length for the small
// direct-gap alphabet (spec §4.4: "direct Huffman over a small gap
// alphabet with code-length restriction").
const huffmanDirectMaxLen = 20

// huffmanAlphabet caps how many distinct small gap values get their own
// Huffman symbol; larger gaps escape to a raw 48-bit field prefixed by
// the reserved top symbol.
const huffmanAlphabet = 255

type huffmanDirectCodec struct{ variant2 bool }

func (c huffmanDirectCodec) encode(xs []offset.Offset) ([]byte, bool) {
	first, g := gaps(xs)
	freq := make([]uint64, huffmanAlphabet+1)
	for _, d := range g {
		if d < huffmanAlphabet {
			freq[d]++
		} else {
			freq[huffmanAlphabet]++
		}
	}
	table := buildHuffTable2(freq, huffmanDirectMaxLen)

	w := &bitWriter{}
	w.writeBinary(uint64(first), 48)
	for b := 0; b <= huffmanAlphabet; b++ {
		w.writeBinary(uint64(table.lengths[b]), 5)
	}
	for _, d := range g {
		if d < huffmanAlphabet {
			table.write(w, int(d))
		} else {
			table.write(w, huffmanAlphabet)
			w.writeBinary(uint64(d), 48)
		}
	}
	return w.bytes(), false
}

func buildHuffTable2(freq []uint64, maxLen int) huffTable {
	lengths := buildCanonicalLengths(freq, maxLen)
	codes := canonicalCodes(lengths)
	return huffTable{lengths: lengths, codes: codes}
}

func (c huffmanDirectCodec) decode(payload []byte, n int, fast bool, out []offset.Offset) error {
	tag := TagHuffmanDirect
	if c.variant2 {
		tag = TagHuffman2
	}
	r := newBitReader(payload, tag)
	first, err := r.readBinary(48)
	if err != nil {
		return err
	}
	lengths := make([]int, huffmanAlphabet+1)
	for b := 0; b <= huffmanAlphabet; b++ {
		v, err := r.readBinary(5)
		if err != nil {
			return err
		}
		lengths[b] = int(v)
	}
	codes := canonicalCodes(lengths)
	table := huffTable{lengths: lengths, codes: codes}
	dm := table.buildDecodeMap()

	g := make([]uint64, n-1)
	for i := 0; i < n-1; i++ {
		sym, err := table.readMax(r, dm, tag, huffmanDirectMaxLen)
		if err != nil {
			return err
		}
		if sym == huffmanAlphabet {
			v, err := r.readBinary(48)
			if err != nil {
				return err
			}
			g[i] = v
		} else {
			g[i] = uint64(sym)
		}
	}
	ungapInto(offset.Offset(first), g, out)
	return nil
}

func init() {
	register(TagHuffmanDirect, huffmanDirectCodec{variant2: false}, huffmanDirectCodec{variant2: false})
	register(TagHuffman2, huffmanDirectCodec{variant2: true}, huffmanDirectCodec{variant2: true})
}
