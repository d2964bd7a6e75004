//go:build tinygo && rpi3

package physmem

import (
	"runtime/volatile"
	"unsafe"
)

// Direct dereferences physical addresses. The MMU is off.
type Direct struct{}

func (Direct) LoadWord(addr uintptr) uint64 {
	return volatile.LoadUint64((*uint64)(unsafe.Pointer(addr)))
}

func (Direct) StoreWord(addr uintptr, v uint64) {
	volatile.StoreUint64((*uint64)(unsafe.Pointer(addr)), v)
}

func (Direct) LoadByte(addr uintptr) byte {
	return volatile.LoadUint8((*uint8)(unsafe.Pointer(addr)))
}

func (Direct) StoreByte(addr uintptr, v byte) {
	volatile.StoreUint8((*uint8)(unsafe.Pointer(addr)), v)
}
