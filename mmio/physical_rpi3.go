//go:build tinygo && rpi3

package mmio

import (
	"device/arm64"
	"runtime/volatile"
	"unsafe"
)

// Physical accesses registers at their physical address. The MMU is off, so
// physical and virtual addresses are identical.
type Physical struct{}

func (Physical) Load(r Addr) uint32 {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(uintptr(r))))
}

func (Physical) Store(r Addr, v uint32) {
	volatile.StoreUint32((*uint32)(unsafe.Pointer(uintptr(r))), v)
}

func (Physical) Barrier() {
	arm64.Asm("dmb sy")
}
