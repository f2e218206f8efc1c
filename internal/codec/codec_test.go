package codec

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amanmcp/internal/offset"
)

var allTags = []Tag{
	TagVByte, TagGamma, TagDelta, TagGolomb, TagRice, TagSimple9,
	TagGroupVarInt, TagPForDelta, TagLLRun, TagLLRunMulti,
	TagInterpolative, TagGUBC, TagGUBCIP, TagHuffmanDirect, TagHuffman2, TagNone,
}

func uniformSeq(r *rand.Rand, n int) []offset.Offset {
	seen := map[offset.Offset]bool{}
	var v offset.Offset
	xs := make([]offset.Offset, 0, n)
	for len(xs) < n {
		v += offset.Offset(1 + r.Intn(5000))
		if !seen[v] {
			seen[v] = true
			xs = append(xs, v)
		}
	}
	return xs
}

func geometricSeq(r *rand.Rand, n int) []offset.Offset {
	xs := make([]offset.Offset, 0, n)
	var v offset.Offset
	gap := offset.Offset(1)
	for len(xs) < n {
		v += gap
		xs = append(xs, v)
		if r.Intn(10) == 0 {
			gap *= 2
			if gap > 1<<20 {
				gap = 1
			}
		}
	}
	return xs
}

func clusteredSeq(r *rand.Rand, n int) []offset.Offset {
	xs := make([]offset.Offset, 0, n)
	var base offset.Offset
	for len(xs) < n {
		cluster := 5 + r.Intn(20)
		base += offset.Offset(1000 + r.Intn(10000))
		for i := 0; i < cluster && len(xs) < n; i++ {
			base += offset.Offset(1 + r.Intn(3))
			xs = append(xs, base)
		}
	}
	return xs
}

func TestCodecRoundTrip(t *testing.T) {
	lengths := []int{0, 1, 2, 63, 64, 65, 1024, 32768}
	gens := map[string]func(*rand.Rand, int) []offset.Offset{
		"uniform":   uniformSeq,
		"geometric": geometricSeq,
		"clustered": clusteredSeq,
	}
	r := rand.New(rand.NewSource(1))
	for _, tag := range allTags {
		for name, gen := range gens {
			for _, n := range lengths {
				xs := gen(r, n)
				frame, err := Compress(tag, xs)
				require.NoError(t, err, "%s/%s/%d compress", tag, name, n)
				got, err := Decompress(frame, nil)
				require.NoError(t, err, "%s/%s/%d decompress", tag, name, n)
				require.Equal(t, xs, got, "%s/%s/%d round trip", tag, name, n)
			}
		}
	}
}

func TestCodecInterchange(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	xs := uniformSeq(r, 200)
	var frames [][]byte
	for _, tag := range allTags {
		f, err := Compress(tag, xs)
		require.NoError(t, err)
		frames = append(frames, f)
	}
	for i, f := range frames {
		got, err := Decompress(f, nil)
		require.NoError(t, err, "tag %s", allTags[i])
		require.Equal(t, xs, got, "tag %s", allTags[i])
	}
}

func TestCodecParityFixedSet(t *testing.T) {
	xs := []offset.Offset{0, 127, 128, 16383, 16384, 1 << 32, 1 << 40, offset.MaxOffset}
	for _, tag := range allTags {
		frame, err := Compress(tag, xs)
		require.NoError(t, err, tag)
		got, err := Decompress(frame, nil)
		require.NoError(t, err, tag)
		require.Equal(t, xs, got, tag)
	}
}

func TestVByteMerge(t *testing.T) {
	a := []offset.Offset{10, 20, 30}
	b := []offset.Offset{40, 55, 70}
	fa, err := Compress(TagVByte, a)
	require.NoError(t, err)
	fb, err := Compress(TagVByte, b)
	require.NoError(t, err)
	merged, err := MergeCompressed(fa, fb, 30, false)
	require.NoError(t, err)
	got, err := Decompress(merged, nil)
	require.NoError(t, err)
	want := append(append([]offset.Offset{}, a...), b...)
	require.Equal(t, want, got)
}

func TestDecompressRejectsCorruptFrame(t *testing.T) {
	_, err := Decompress([]byte{0x7f, 0x01}, nil)
	require.Error(t, err)
	var cerr *CorruptFrameError
	require.ErrorAs(t, err, &cerr)
}

func TestEmptyFrame(t *testing.T) {
	for _, tag := range allTags {
		frame, err := Compress(tag, nil)
		require.NoError(t, err)
		got, err := Decompress(frame, nil)
		require.NoError(t, err)
		require.Empty(t, got)
	}
}
