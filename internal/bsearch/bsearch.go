// Package bsearch implements the biased binary search used for position
// lookups: when the exact needle is missing it returns the closest element
// below or above it depending on Bias.
package bsearch

// Bias selects which neighbour to return when the needle is not found.
type Bias uint8

const (
	// GreatestLowerBound returns the closest element smaller than the needle.
	GreatestLowerBound Bias = 1
	// LeastUpperBound returns the closest element greater than the needle.
	LeastUpperBound Bias = 2
)

// String returns the bias name.
func (b Bias) String() string {
	switch b {
	case GreatestLowerBound:
		return "greatest-lower-bound"
	case LeastUpperBound:
		return "least-upper-bound"
	default:
		return "unknown"
	}
}

// Search looks for needle in the sorted haystack and returns its index, or
// -1 when neither the needle nor a neighbour in the bias direction exists.
// cmp compares the needle with an element; same reports whether two
// adjacent elements compare equal, and is used to return the smallest index
// among equal elements.
func Search[N, T any](needle N, haystack []T, cmp func(N, T) int, same func(a, b T) bool, bias Bias) int {
	if len(haystack) == 0 {
		return -1
	}
	if bias == 0 {
		bias = GreatestLowerBound
	}

	index := search(-1, len(haystack), needle, haystack, cmp, bias)
	if index < 0 {
		return -1
	}

	for index > 0 && same(haystack[index], haystack[index-1]) {
		index--
	}
	return index
}

// low and high are exclusive bounds: neither index holds the needle.
func search[N, T any](low, high int, needle N, haystack []T, cmp func(N, T) int, bias Bias) int {
	mid := (high-low)/2 + low
	c := cmp(needle, haystack[mid])
	switch {
	case c == 0:
		return mid
	case c > 0:
		if high-mid > 1 {
			return search(mid, high, needle, haystack, cmp, bias)
		}
		if bias == LeastUpperBound {
			if high < len(haystack) {
				return high
			}
			return -1
		}
		return mid
	}

	if mid-low > 1 {
		return search(low, mid, needle, haystack, cmp, bias)
	}
	if bias == LeastUpperBound {
		return mid
	}
	if low < 0 {
		return -1
	}
	return low
}
