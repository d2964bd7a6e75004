// Package physmem gives code running before and between programs access to
// physical memory by address.
package physmem

// Words is word granular access to physical memory.
type Words interface {
	LoadWord(addr uintptr) uint64
	StoreWord(addr uintptr, v uint64)
}

// Bytes is byte granular access to physical memory.
type Bytes interface {
	LoadByte(addr uintptr) byte
	StoreByte(addr uintptr, v byte)
}

// Memory combines word and byte access.
type Memory interface {
	Words
	Bytes
}
