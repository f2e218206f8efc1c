// Package sortutil provides the hybrid heap/radix sort used to put
// raw offset arrays into strict ascending or descending order with
// duplicates removed, before they're handed to postings.NewArray or
// merged into a compressed block (spec's Misc utilities component).
package sortutil

import (
	"container/heap"

	"github.com/Aman-CERP/amanmcp/internal/offset"
)

// radixThreshold is the element count above which SortOffsets switches
// from heap sort to an LSD radix sort with 6-bit passes. Below it,
// radix's fixed per-pass overhead (8 passes over the full 47-bit
// offset range) costs more than heap sort's O(n log n) comparisons.
// The threshold is a tuning knob, not a contract: only the resulting
// order and dedup behavior are.
const radixThreshold = 256

const radixBits = 6
const radixBuckets = 1 << radixBits
const radixMask = radixBuckets - 1

// Ascending sorts offsets in increasing order and removes duplicates,
// returning a new slice (the input is left untouched).
func Ascending(offsets []offset.Offset) []offset.Offset {
	return sortDedup(offsets, false)
}

// Descending sorts offsets in decreasing order and removes
// duplicates, returning a new slice (the input is left untouched).
func Descending(offsets []offset.Offset) []offset.Offset {
	return sortDedup(offsets, true)
}

func sortDedup(in []offset.Offset, desc bool) []offset.Offset {
	if len(in) == 0 {
		return nil
	}
	work := append([]offset.Offset{}, in...)
	if len(work) < radixThreshold {
		heapSort(work)
	} else {
		radixSort(work)
	}
	out := dedup(work)
	if desc {
		reverse(out)
	}
	return out
}

func dedup(sorted []offset.Offset) []offset.Offset {
	out := sorted[:0:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func reverse(s []offset.Offset) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// offsetHeap is a plain min-heap over offset.Offset, used by heapSort.
type offsetHeap []offset.Offset

func (h offsetHeap) Len() int            { return len(h) }
func (h offsetHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h offsetHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *offsetHeap) Push(x any)         { *h = append(*h, x.(offset.Offset)) }
func (h *offsetHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

func heapSort(s []offset.Offset) {
	h := offsetHeap(append([]offset.Offset{}, s...))
	heap.Init(&h)
	for i := range s {
		s[i] = heap.Pop(&h).(offset.Offset)
	}
}

// radixSort performs an LSD radix sort in 6-bit passes over the
// non-negative offset range (offsets are always in [0, MaxOffset], so
// no sign handling is needed). 47 bits / 6 bits per pass needs 8
// passes to cover the full range.
func radixSort(s []offset.Offset) {
	n := len(s)
	if n == 0 {
		return
	}
	buf := make([]offset.Offset, n)
	src, dst := s, buf

	maxVal := src[0]
	for _, v := range src {
		if v > maxVal {
			maxVal = v
		}
	}

	var counts [radixBuckets]int
	passes := 0
	for shift := uint(0); shift == 0 || maxVal>>shift > 0; shift += radixBits {
		for i := range counts {
			counts[i] = 0
		}
		for _, v := range src {
			bucket := (uint64(v) >> shift) & radixMask
			counts[bucket]++
		}
		sum := 0
		for i := range counts {
			c := counts[i]
			counts[i] = sum
			sum += c
		}
		for _, v := range src {
			bucket := (uint64(v) >> shift) & radixMask
			dst[counts[bucket]] = v
			counts[bucket]++
		}
		src, dst = dst, src
		passes++
	}
	// An odd number of passes leaves the sorted data in buf rather than
	// s; copy it back in that case.
	if passes%2 == 1 {
		copy(s, src)
	}
}
