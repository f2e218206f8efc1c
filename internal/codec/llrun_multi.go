package codec

import "github.com/Aman-CERP/amanmcp/internal/offset"

// llrunMultiPartitions is the number of sub-alphabet partitions LLRUN-
// Multi splits the bit-length buckets into (spec §4.4: "up to 4 sub-
// alphabets").
const llrunMultiPartitions = 4

// llrunMultiCodec extends LLRUN with context: the bucket alphabet is
// split into up to llrunMultiPartitions groups, each gets its own
// canonical Huffman table, and which table encodes a given gap is
// determined by the partition of the *previous* gap's bucket (an
// implicit transition rule, avoiding a per-symbol side channel).
//
// The spec grounds the partition split in a KL-divergence measure over
// bucket-pair co-occurrence; this implementation approximates that with
// a frequency-weighted contiguous split of the bucket range into up to
// four runs (a simpler clustering that still captures the dominant
// correlation a bit-length sequence exhibits: consecutive gaps tend to
// fall in adjacent buckets), documented as an approximation rather than
// the exact KL-divergence partitioner.
type llrunMultiCodec struct{}

// partitionOf maps each bucket (0..llrunBuckets-1) to the partition that
// bucket was assigned to.
func buildPartitions(freq []uint64) (partitionOf [llrunBuckets]int, numParts int) {
	// Find contiguous runs of nonzero-frequency buckets, then split the
	// overall mass into up to llrunMultiPartitions roughly equal-weight
	// contiguous groups.
	var total uint64
	for _, f := range freq {
		total += f
	}
	if total == 0 {
		return partitionOf, 1
	}
	target := total / llrunMultiPartitions
	if target == 0 {
		target = 1
	}
	part := 0
	var acc uint64
	for b := 0; b < llrunBuckets; b++ {
		partitionOf[b] = part
		acc += freq[b]
		if acc >= target && part < llrunMultiPartitions-1 {
			part++
			acc = 0
		}
	}
	return partitionOf, llrunMultiPartitions
}

func (llrunMultiCodec) encode(xs []offset.Offset) ([]byte, bool) {
	first, g := gaps(xs)
	freq := make([]uint64, llrunBuckets)
	buckets := make([]int, len(g))
	for i, d := range g {
		bk := bucketOf(d + 1)
		buckets[i] = bk
		freq[bk]++
	}
	partitionOf, numParts := buildPartitions(freq)

	// Per-partition frequency tables, built over the buckets assigned
	// to that partition only.
	partFreq := make([][]uint64, numParts)
	for p := range partFreq {
		partFreq[p] = make([]uint64, llrunBuckets)
	}
	for i, bk := range buckets {
		ctxPart := 0
		if i > 0 {
			ctxPart = partitionOf[buckets[i-1]]
		}
		partFreq[ctxPart][bk]++
	}
	tables := make([]huffTable, numParts)
	for p := range tables {
		tables[p] = buildHuffTable(partFreq[p])
	}

	w := &bitWriter{}
	w.writeBinary(uint64(first), 48)
	w.writeBinary(uint64(numParts), 4)
	for b := 0; b < llrunBuckets; b++ {
		w.writeBinary(uint64(partitionOf[b]), 3)
	}
	for p := 0; p < numParts; p++ {
		for b := 0; b < llrunBuckets; b++ {
			w.writeBinary(uint64(tables[p].lengths[b]), 4)
		}
	}
	for i, d := range g {
		bk := buckets[i]
		ctxPart := 0
		if i > 0 {
			ctxPart = partitionOf[buckets[i-1]]
		}
		tables[ctxPart].write(w, bk)
		if bk > 1 {
			w.writeBinary(d+1-(uint64(1)<<uint(bk-1)), bk-1)
		}
	}
	return w.bytes(), false
}

func (llrunMultiCodec) decode(payload []byte, n int, fast bool, out []offset.Offset) error {
	r := newBitReader(payload, TagLLRunMulti)
	first, err := r.readBinary(48)
	if err != nil {
		return err
	}
	numPartsV, err := r.readBinary(4)
	if err != nil {
		return err
	}
	numParts := int(numPartsV)
	if numParts == 0 || numParts > llrunMultiPartitions {
		return &CorruptFrameError{Tag: TagLLRunMulti, Reason: "invalid partition count"}
	}
	var partitionOf [llrunBuckets]int
	for b := 0; b < llrunBuckets; b++ {
		v, err := r.readBinary(3)
		if err != nil {
			return err
		}
		if int(v) >= numParts {
			return &CorruptFrameError{Tag: TagLLRunMulti, Reason: "partition index out of range"}
		}
		partitionOf[b] = int(v)
	}
	tables := make([]huffTable, numParts)
	dms := make([]map[decodeEntry]int, numParts)
	for p := 0; p < numParts; p++ {
		lengths := make([]int, llrunBuckets)
		for b := 0; b < llrunBuckets; b++ {
			v, err := r.readBinary(4)
			if err != nil {
				return err
			}
			lengths[b] = int(v)
		}
		codes := canonicalCodes(lengths)
		tables[p] = huffTable{lengths: lengths, codes: codes}
		dms[p] = tables[p].buildDecodeMap()
	}

	g := make([]uint64, n-1)
	ctxPart := 0
	for i := 0; i < n-1; i++ {
		bk, err := tables[ctxPart].read(r, dms[ctxPart], TagLLRunMulti)
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
		ctxPart = partitionOf[bk]
	}
	ungapInto(offset.Offset(first), g, out)
	return nil
}

func init() {
	register(TagLLRunMulti, llrunMultiCodec{}, llrunMultiCodec{})
}
