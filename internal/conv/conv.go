// Package conv provides checked integer conversions for the packed
// constraint and operation words.
//
// Every helper panics on overflow: an id that does not fit its bit field
// means the automaton was built beyond the engine's internal limits, which
// is a programming error rather than a recoverable condition.
package conv

import (
	"fmt"
	"math"
)

// IntToUint32 safely converts an int to uint32.
// Panics if n < 0 or n > math.MaxUint32.
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

// IntToUint16 safely converts an int to uint16.
// Panics if n < 0 or n > math.MaxUint16.
//
//go:inline
func IntToUint16(n int) uint16 {
	if n < 0 || n > math.MaxUint16 {
		panic("integer overflow: int value out of uint16 range")
	}
	return uint16(n)
}

// Field checks that v fits into an unsigned bit field of the given width
// and returns it widened to uint64. name identifies the field in the
// panic message.
func Field(v uint32, width uint, name string) uint64 {
	if width < 32 && v >= 1<<width {
		panic(fmt.Sprintf("integer overflow: %s %d does not fit in %d bits", name, v, width))
	}
	return uint64(v)
}
