package physmem

import (
	"encoding/binary"
	"fmt"
)

// Arena simulates a window of physical memory starting at Base. Accesses
// outside the window panic like a bus fault would stop the core. Word access
// is little endian, as on the target.
type Arena struct {
	Base uintptr
	Mem  []byte
}

// NewArena returns a zeroed arena of size bytes at base.
func NewArena(base uintptr, size int) *Arena {
	return &Arena{Base: base, Mem: make([]byte, size)}
}

func (a *Arena) offset(addr uintptr, n int) int {
	if addr < a.Base || addr-a.Base+uintptr(n) > uintptr(len(a.Mem)) {
		panic(fmt.Sprintf("physmem: access at %#x outside [%#x, %#x)",
			addr, a.Base, a.Base+uintptr(len(a.Mem))))
	}
	return int(addr - a.Base)
}

func (a *Arena) LoadWord(addr uintptr) uint64 {
	off := a.offset(addr, 8)
	return binary.LittleEndian.Uint64(a.Mem[off:])
}

func (a *Arena) StoreWord(addr uintptr, v uint64) {
	off := a.offset(addr, 8)
	binary.LittleEndian.PutUint64(a.Mem[off:], v)
}

func (a *Arena) LoadByte(addr uintptr) byte {
	return a.Mem[a.offset(addr, 1)]
}

func (a *Arena) StoreByte(addr uintptr, v byte) {
	a.Mem[a.offset(addr, 1)] = v
}

// Slice returns the n bytes at addr without copying.
func (a *Arena) Slice(addr uintptr, n int) []byte {
	off := a.offset(addr, n)
	return a.Mem[off : off+n]
}
