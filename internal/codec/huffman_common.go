package codec

import "sort"

// huffNode is a node of a length-limited canonical Huffman tree built
// over a small alphabet (bit-length buckets for LLRUN/GUBC, or raw gap
// values for Huffman-direct/Huffman2).
type huffNode struct {
	symbol       int
	freq         uint64
	left, right  *huffNode
}

// buildCanonicalLengths computes, for each symbol with freq[i] > 0, a
// Huffman code length, then canonicalizes and length-limits the result
// to maxLen bits using the standard "kraft-sum clamp and redistribute"
// technique. Symbols with zero frequency get length 0 (unused).
func buildCanonicalLengths(freq []uint64, maxLen int) []int {
	n := len(freq)
	lengths := make([]int, n)

	var nodes []*huffNode
	for i, f := range freq {
		if f > 0 {
			nodes = append(nodes, &huffNode{symbol: i, freq: f})
		}
	}
	if len(nodes) == 0 {
		return lengths
	}
	if len(nodes) == 1 {
		lengths[nodes[0].symbol] = 1
		return lengths
	}

	// Classic two-queue Huffman build.
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].freq < nodes[j].freq })
	queue := append([]*huffNode(nil), nodes...)
	var internal []*huffNode
	i1, i2 := 0, 0
	pop := func() *huffNode {
		if i1 < len(queue) && (i2 >= len(internal) || queue[i1].freq <= internal[i2].freq) {
			n := queue[i1]
			i1++
			return n
		}
		n := internal[i2]
		i2++
		return n
	}
	remaining := len(queue)
	for remaining > 1 {
		a := pop()
		b := pop()
		parent := &huffNode{freq: a.freq + b.freq, left: a, right: b}
		internal = append(internal, parent)
		remaining--
	}
	root := internal[len(internal)-1]

	var walk func(n *huffNode, depth int)
	walk = func(n *huffNode, depth int) {
		if n.left == nil && n.right == nil {
			if depth == 0 {
				depth = 1
			}
			lengths[n.symbol] = depth
			return
		}
		walk(n.left, depth+1)
		walk(n.right, depth+1)
	}
	walk(root, 0)

	limitLengths(lengths, maxLen)
	return lengths
}

// limitLengths enforces the Kraft inequality under a maximum code
// length by greedily trimming the longest codes and redistributing the
// freed Kraft budget to the shortest ones, an approximation adequate for
// the small alphabets (<=32 symbols) LLRUN/GUBC use.
func limitLengths(lengths []int, maxLen int) {
	over := false
	for _, l := range lengths {
		if l > maxLen {
			over = true
			break
		}
	}
	if !over {
		return
	}
	for i, l := range lengths {
		if l > maxLen {
			lengths[i] = maxLen
		}
	}
	for {
		var kraft float64
		for _, l := range lengths {
			if l > 0 {
				kraft += 1.0 / float64(int(1)<<uint(l))
			}
		}
		if kraft <= 1.0 {
			return
		}
		// find the symbol with the smallest length > 0 and grow it,
		// which reduces the Kraft sum; loop until satisfied or a bound
		// on iterations is hit to guarantee termination.
		minIdx := -1
		for i, l := range lengths {
			if l > 0 && l < maxLen && (minIdx == -1 || l < lengths[minIdx]) {
				minIdx = i
			}
		}
		if minIdx == -1 {
			return
		}
		lengths[minIdx]++
	}
}

// canonicalCodes assigns canonical Huffman codes given per-symbol
// lengths: symbols are ordered by (length, symbol) and codes increment
// in that order, shifting left whenever length increases.
func canonicalCodes(lengths []int) (codes []uint32) {
	n := len(lengths)
	codes = make([]uint32, n)
	type sym struct {
		idx, length int
	}
	var syms []sym
	for i, l := range lengths {
		if l > 0 {
			syms = append(syms, sym{i, l})
		}
	}
	sort.Slice(syms, func(i, j int) bool {
		if syms[i].length != syms[j].length {
			return syms[i].length < syms[j].length
		}
		return syms[i].idx < syms[j].idx
	})
	var code uint32
	prevLen := 0
	for _, s := range syms {
		code <<= uint(s.length - prevLen)
		codes[s.idx] = code
		code++
		prevLen = s.length
	}
	return codes
}
