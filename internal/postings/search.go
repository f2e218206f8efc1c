package postings

import "github.com/Aman-CERP/amanmcp/internal/offset"

// expSearchGE returns the smallest index i in arr (strictly increasing)
// with arr[i] >= p, or len(arr) if none. start seeds the search so a
// caller with a monotonically advancing p pays amortised O(1): the
// search expands exponentially forward from start until it brackets
// the answer, then binary-searches the bracket. A p smaller than
// arr[start] (the caller moved backward, or this is the first call)
// falls back to a plain binary search over the prefix.
func expSearchGE(arr []offset.Offset, start int, p offset.Offset) int {
	n := len(arr)
	if n == 0 {
		return 0
	}
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if start == n || arr[start] >= p {
		lo, hi := 0, start
		for lo < hi {
			mid := (lo + hi) / 2
			if arr[mid] >= p {
				hi = mid
			} else {
				lo = mid + 1
			}
		}
		return lo
	}
	lo, hi := start, start+1
	bound := 1
	for hi < n && arr[hi] < p {
		lo = hi
		hi += bound
		bound *= 2
	}
	if hi > n {
		hi = n
	}
	lo++
	for lo < hi {
		mid := (lo + hi) / 2
		if arr[mid] >= p {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// expSearchLE returns the largest index i in arr (strictly increasing)
// with arr[i] <= p, or -1 if none. Mirrors expSearchGE but rounds the
// binary-search midpoint upward ((lo+hi+1)/2), the standard trick to
// avoid an infinite loop when lo = hi-1 and the answer is hi.
func expSearchLE(arr []offset.Offset, start int, p offset.Offset) int {
	n := len(arr)
	if n == 0 {
		return -1
	}
	if start < 0 {
		start = 0
	}
	if start >= n {
		start = n - 1
	}
	if arr[start] > p {
		lo, hi := -1, start
		for lo < hi {
			mid := (lo + hi + 1) / 2
			if mid >= 0 && arr[mid] <= p {
				lo = mid
			} else {
				hi = mid - 1
			}
		}
		return lo
	}
	lo, hi := start, start
	bound := 1
	for hi+1 < n && arr[hi+1] <= p {
		lo = hi + 1
		hi += bound
		if hi >= n {
			hi = n - 1
		}
		bound *= 2
	}
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if arr[mid] <= p {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
