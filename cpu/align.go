package cpu

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

// AlignUp rounds v up to the next multiple of align, which must be a power of
// two.
func AlignUp[T constraints.Unsigned](v, align T) T {
	return (v + align - 1) &^ (align - 1)
}

// AlignDown rounds v down to a multiple of align, which must be a power of
// two.
func AlignDown[T constraints.Unsigned](v, align T) T {
	return v &^ (align - 1)
}

// IsAligned reports whether v is a multiple of align.
func IsAligned[T constraints.Unsigned](v, align T) bool {
	return v&(align-1) == 0
}

// AlignedWords returns the first n elements of buf that start at an address
// aligned to align bytes. buf must provide enough padding, i.e. at least
// align/4-1 extra elements. Nothing is allocated.
func AlignedWords(buf []uint32, n int, align uintptr) []uint32 {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	shift := int(AlignUp(addr, align)-addr) / 4
	return buf[shift : shift+n : shift+n]
}
