package postings

import (
	"github.com/Aman-CERP/amanmcp/internal/codec"
	"github.com/Aman-CERP/amanmcp/internal/offset"
)

// MaxSegmentSize is the largest number of postings held by one
// compressed block (spec §4.2: "≈ 32K postings").
const MaxSegmentSize = 32 * 1024

// segmentIndex is the in-memory per-block index entry: first/last
// posting (for skipping whole blocks) plus the byte range of the
// block's self-describing frame within Data.
type segmentIndex struct {
	first      offset.Offset
	last       offset.Offset
	byteOffset int
	byteLen    int
	count      int
}

// Segmented is a posting list of point extents (From == To, the
// common case for term-occurrence lists) backed by a sequence of
// independently compressed blocks. A block is decompressed on demand
// into a scratch buffer the list owns; the cursor remembers the most
// recently decoded block so monotone callers rarely redecode.
//
// A list whose extents genuinely span more than one token (container
// lists covering whole documents) is not represented here: those are
// built and held as an Array instead, since their postings come
// directly from index construction-time boundaries rather than a
// compressible high-cardinality stream.
type Segmented struct {
	Tag    codec.Tag
	Data   []byte
	blocks []segmentIndex

	cachedBlockIdx int
	scratch        []offset.Offset
	inBlockCursor  int
	blockCursor    int
	prefixCount    []offset.Offset // prefixCount[i] = total postings before block i
	firsts         []offset.Offset // firsts[i] = blocks[i].first, cached for search
	lasts          []offset.Offset // lasts[i] = blocks[i].last, cached for search
}

// BuildSegmented splits a strictly increasing posting sequence into
// MaxSegmentSize-sized blocks, compresses each independently with tag,
// and concatenates the resulting frames.
func BuildSegmented(tag codec.Tag, postings []offset.Offset) (*Segmented, error) {
	s := &Segmented{Tag: tag}
	if len(postings) == 0 {
		return s, nil
	}
	var prefix offset.Offset
	for start := 0; start < len(postings); start += MaxSegmentSize {
		end := start + MaxSegmentSize
		if end > len(postings) {
			end = len(postings)
		}
		chunk := postings[start:end]
		frame, err := codec.Compress(tag, chunk)
		if err != nil {
			return nil, internalFault("BuildSegmented", err)
		}
		s.blocks = append(s.blocks, segmentIndex{
			first:      chunk[0],
			last:       chunk[len(chunk)-1],
			byteOffset: len(s.Data),
			byteLen:    len(frame),
			count:      len(chunk),
		})
		s.prefixCount = append(s.prefixCount, prefix)
		prefix += offset.Offset(len(chunk))
		s.Data = append(s.Data, frame...)
		s.firsts = append(s.firsts, chunk[0])
		s.lasts = append(s.lasts, chunk[len(chunk)-1])
	}
	return s, nil
}

func (s *Segmented) loadBlock(i int) error {
	if i == s.cachedBlockIdx && s.scratch != nil {
		return nil
	}
	b := s.blocks[i]
	frame := s.Data[b.byteOffset : b.byteOffset+b.byteLen]
	out, err := codec.Decompress(frame, s.scratch[:0])
	if err != nil {
		return internalFault("Segmented.loadBlock", err)
	}
	s.scratch = out
	s.cachedBlockIdx = i
	return nil
}

// blockForFirstGE returns the smallest block index whose last posting
// is >= p, or len(s.blocks) if none.
func (s *Segmented) blockForFirstGE(p offset.Offset) int {
	return expSearchGE(s.lasts, s.blockCursor, p)
}

// blockForLastLE returns the largest block index whose first posting
// is <= p, or -1 if none.
func (s *Segmented) blockForLastLE(p offset.Offset) int {
	return expSearchLE(s.firsts, s.blockCursor, p)
}

func (s *Segmented) firstGE(p offset.Offset) (offset.Offset, bool, error) {
	if len(s.blocks) == 0 {
		return 0, false, nil
	}
	bi := s.blockForFirstGE(p)
	if bi >= len(s.blocks) {
		return 0, false, nil
	}
	seed := 0
	if bi == s.blockCursor {
		seed = s.inBlockCursor
	}
	if err := s.loadBlock(bi); err != nil {
		return 0, false, err
	}
	s.blockCursor = bi
	vi := expSearchGE(s.scratch, seed, p)
	if vi >= len(s.scratch) {
		return 0, false, nil
	}
	s.inBlockCursor = vi
	return s.scratch[vi], true, nil
}

func (s *Segmented) lastLE(p offset.Offset) (offset.Offset, bool, error) {
	if len(s.blocks) == 0 {
		return 0, false, nil
	}
	bi := s.blockForLastLE(p)
	if bi < 0 {
		return 0, false, nil
	}
	if err := s.loadBlock(bi); err != nil {
		return 0, false, err
	}
	s.blockCursor = bi
	vi := expSearchLE(s.scratch, len(s.scratch)-1, p)
	if vi < 0 {
		return 0, false, nil
	}
	s.inBlockCursor = vi
	return s.scratch[vi], true, nil
}

func (s *Segmented) FirstStartBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	v, ok, err := s.firstGE(p)
	if !ok || err != nil {
		return offset.Extent{}, ok, err
	}
	return offset.Extent{From: v, To: v}, true, nil
}

func (s *Segmented) FirstEndBiggerEq(p offset.Offset) (offset.Extent, bool, error) {
	return s.FirstStartBiggerEq(p)
}

func (s *Segmented) LastStartSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	v, ok, err := s.lastLE(p)
	if !ok || err != nil {
		return offset.Extent{}, ok, err
	}
	return offset.Extent{From: v, To: v}, true, nil
}

func (s *Segmented) LastEndSmallerEq(p offset.Offset) (offset.Extent, bool, error) {
	return s.LastStartSmallerEq(p)
}

func (s *Segmented) NextN(from, to offset.Offset, out []offset.Extent) (int, error) {
	count := 0
	p := from
	for count < len(out) {
		v, ok, err := s.firstGE(p)
		if err != nil {
			return count, err
		}
		if !ok || v > to {
			break
		}
		out[count] = offset.Extent{From: v, To: v}
		count++
		p = v + 1
	}
	return count, nil
}

func (s *Segmented) Length() (offset.Offset, error) {
	if len(s.blocks) == 0 {
		return 0, nil
	}
	last := s.blocks[len(s.blocks)-1]
	return s.prefixCount[len(s.prefixCount)-1] + offset.Offset(last.count), nil
}

func (s *Segmented) Count(from, to offset.Offset) (offset.Offset, error) {
	var n offset.Offset
	for i, b := range s.blocks {
		if b.last < from || b.first > to {
			continue
		}
		if b.first >= from && b.last <= to {
			n += offset.Offset(b.count)
			continue
		}
		if err := s.loadBlock(i); err != nil {
			return n, err
		}
		lo := expSearchGE(s.scratch, 0, from)
		hi := expSearchGE(s.scratch, 0, to+1)
		if hi > lo {
			n += offset.Offset(hi - lo)
		}
	}
	return n, nil
}

func (s *Segmented) GetNth(i offset.Offset) (offset.Extent, bool) {
	if len(s.blocks) == 0 {
		return offset.Extent{}, false
	}
	lo, hi := 0, len(s.blocks)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.prefixCount[mid] <= i {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	within := int(i - s.prefixCount[lo])
	if within < 0 || within >= s.blocks[lo].count {
		return offset.Extent{}, false
	}
	if err := s.loadBlock(lo); err != nil {
		return offset.Extent{}, false
	}
	v := s.scratch[within]
	return offset.Extent{From: v, To: v}, true
}

func (s *Segmented) IsSecure() bool      { return false }
func (s *Segmented) IsAlmostSecure() bool { return false }

func (s *Segmented) MakeAlmostSecure(visible VisibleSet) List {
	return &visibleFilterList{inner: s, visible: visible}
}

// Optimize is a no-op: re-choosing a codec after construction would
// require re-scanning the decompressed gap distribution, which the
// index builder (outside this core's scope) already did once up front.
func (s *Segmented) Optimize() List { return s }
