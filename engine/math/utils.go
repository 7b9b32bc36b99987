package math

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// AlignUp rounds size up to the next multiple of alignment.
// An alignment of zero leaves size untouched.
func AlignUp[T constraints.Unsigned](size, alignment T) T {
	if alignment == 0 {
		return size
	}
	return (size + alignment - 1) / alignment * alignment
}

// FloorLog2 returns ⌊log2(v)⌋ for v > 0 and 0 otherwise.
func FloorLog2[T constraints.Unsigned](v T) uint32 {
	var n uint32
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}
