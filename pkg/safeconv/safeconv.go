// Package safeconv provides checked integer conversions for coverage counters.
package safeconv

import "math"

// MaxUint32 is the largest value a coverage counter can hold.
const MaxUint32 = uint32(math.MaxUint32)

// MustIntToUint32 converts a collection length to a uint32 counter.
// It panics when n is negative or does not fit, which would mean a single
// file carries more than four billion instrumented items.
func MustIntToUint32(n int) uint32 {
	if n < 0 || uint64(n) > uint64(MaxUint32) {
		panic("safeconv: int to uint32 out of bounds")
	}

	return uint32(n)
}

// AddUint32 adds b to a, saturating at MaxUint32 instead of wrapping.
func AddUint32(a, b uint32) uint32 {
	if a > MaxUint32-b {
		return MaxUint32
	}

	return a + b
}
