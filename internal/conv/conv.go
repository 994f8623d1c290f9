// Package conv provides checked integer narrowing for automaton indices.
package conv

import "math"

// IntToUint32 converts a slice index or length to a uint32 ID.
// Panics if n < 0 or n > math.MaxUint32: an automaton that large cannot be
// addressed and indicates a programming error.
//
//go:inline
func IntToUint32(n int) uint32 {
	// Use uint for comparison to avoid overflow on 32-bit platforms
	// where int cannot represent math.MaxUint32
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("integer overflow: int value out of uint32 range")
	}
	return uint32(n)
}

// UintToUint32 converts user input such as a flag value, reporting false
// instead of truncating when n does not fit.
func UintToUint32(n uint) (uint32, bool) {
	if uint64(n) > math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}
