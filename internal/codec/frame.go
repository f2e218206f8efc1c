// Package codec implements the dozen interchangeable integer codecs that
// encode sorted sequences of 64-bit token offsets into the self-describing
// frame format shared by every compressed posting block (spec §3, §4.4).
package codec

import (
	"fmt"

	"github.com/Aman-CERP/amanmcp/internal/offset"
)

// Tag identifies the codec that produced a frame's payload. The low 7
// bits of the frame's first byte carry the tag; the high bit is a
// codec-specific fast-path flag.
type Tag byte

const (
	TagVByte Tag = iota
	TagGamma
	TagDelta
	TagGolomb
	TagRice
	TagSimple9
	TagGroupVarInt
	TagPForDelta
	TagLLRun
	TagLLRunMulti
	TagInterpolative
	TagGUBC
	TagGUBCIP
	TagHuffmanDirect
	TagHuffman2
	TagNone
)

// fastFlagMask is the high bit of the tag byte, reused per-codec as a
// "fast path applies" hint (e.g. "all vByte gaps <= 127").
const fastFlagMask = 0x80
const tagMask = 0x7f

func (t Tag) String() string {
	switch t {
	case TagVByte:
		return "vbyte"
	case TagGamma:
		return "gamma"
	case TagDelta:
		return "delta"
	case TagGolomb:
		return "golomb"
	case TagRice:
		return "rice"
	case TagSimple9:
		return "simple9"
	case TagGroupVarInt:
		return "groupvarint"
	case TagPForDelta:
		return "pfordelta"
	case TagLLRun:
		return "llrun"
	case TagLLRunMulti:
		return "llrun-multi"
	case TagInterpolative:
		return "interpolative"
	case TagGUBC:
		return "gubc"
	case TagGUBCIP:
		return "gubc-ip"
	case TagHuffmanDirect:
		return "huffman-direct"
	case TagHuffman2:
		return "huffman2"
	case TagNone:
		return "none"
	default:
		return fmt.Sprintf("tag(%d)", byte(t))
	}
}

// CorruptFrameError is returned when a decoder encounters a malformed
// frame: unknown tag, a count exceeding remaining bytes, or a decoder
// that would read past the end of the buffer. Per spec §7 this is the
// one true fault the core's posting-list layer can hit; the caller
// should surface InternalError and poison the owning list.
type CorruptFrameError struct {
	Tag    Tag
	Reason string
}

func (e *CorruptFrameError) Error() string {
	return fmt.Sprintf("codec: corrupt frame (tag=%s): %s", e.Tag, e.Reason)
}

// encoder produces the gap-coded payload of a frame for a sorted,
// strictly-increasing slice of offsets. first is the absolute value of
// xs[0]; the returned bytes are the payload only (tag + count are
// written by Compress).
type encoder interface {
	encode(xs []offset.Offset) (payload []byte, fastFlag bool)
}

// decoder restores n offsets (as absolute gap-decoded values) from a
// payload into out, which has len(out) >= n. It must never read past
// payload's end; any attempt is reported via CorruptFrameError.
type decoder interface {
	decode(payload []byte, n int, fastFlag bool, out []offset.Offset) error
}

type codecImpl struct {
	enc encoder
	dec decoder
}

var registry = map[Tag]codecImpl{}

func register(tag Tag, enc encoder, dec decoder) {
	registry[tag] = codecImpl{enc: enc, dec: dec}
}

// Compress encodes xs (a strictly increasing sequence of offsets, the
// postings of a single block) into a self-describing frame using the
// given codec.
func Compress(tag Tag, xs []offset.Offset) ([]byte, error) {
	impl, ok := registry[tag]
	if !ok {
		return nil, &CorruptFrameError{Tag: tag, Reason: "unknown codec"}
	}
	payload, fast := impl.enc.encode(xs)
	tagByte := byte(tag) & tagMask
	if fast {
		tagByte |= fastFlagMask
	}
	out := make([]byte, 0, 1+vbyteLen(uint64(len(xs)))+len(payload))
	out = append(out, tagByte)
	out = appendVByte(out, uint64(len(xs)))
	out = append(out, payload...)
	return out, nil
}

// Decompress restores the original offset sequence from a frame
// produced by Compress (by this codec or any other registered one: the
// dispatch below is by tag byte, not by caller-supplied codec). out is
// reused when it has sufficient capacity, matching the segmented list's
// scratch-buffer reuse contract.
func Decompress(frame []byte, out []offset.Offset) ([]offset.Offset, error) {
	if len(frame) < 1 {
		return nil, &CorruptFrameError{Reason: "frame too short for tag byte"}
	}
	tagByte := frame[0]
	tag := Tag(tagByte & tagMask)
	fast := tagByte&fastFlagMask != 0
	impl, ok := registry[tag]
	if !ok {
		return nil, &CorruptFrameError{Tag: tag, Reason: "unknown codec tag"}
	}
	n, rest, err := readVByte(frame[1:])
	if err != nil {
		return nil, &CorruptFrameError{Tag: tag, Reason: "truncated count: " + err.Error()}
	}
	if n > uint64(len(rest))*8+64 {
		// A lower bound sanity check: even the most degenerate 1-bit/gap
		// codec cannot encode more than ~8 postings per payload byte of
		// slack once bookkeeping is considered for n this large.
		return nil, &CorruptFrameError{Tag: tag, Reason: "count implausible for payload size"}
	}
	if cap(out) < int(n) {
		out = make([]offset.Offset, n)
	} else {
		out = out[:n]
	}
	if n == 0 {
		return out, nil
	}
	if err := impl.dec.decode(rest, int(n), fast, out); err != nil {
		return nil, err
	}
	return out, nil
}

func vbyteLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
