// Package mmio provides access to memory mapped peripheral registers.
//
// Drivers never dereference register addresses themselves. They are given a
// [Bus], which is bound to the physical address space on the target and
// replaced by a recording double in tests.
package mmio

// Addr is the physical bus address of a 32-bit register.
type Addr uint32

// Bus is the capability to access peripheral registers.
type Bus interface {
	Load(r Addr) uint32
	Store(r Addr, v uint32)

	// Barrier makes all preceding memory writes visible to other bus
	// masters before any following Store.
	Barrier()
}

// Field is a named bit range inside a 32-bit register.
type Field struct {
	Shift uint8
	Width uint8
}

// Mask returns the in-register mask of f.
func (f Field) Mask() uint32 {
	return (1<<f.Width - 1) << f.Shift
}

// Get extracts the value of f from the register value reg.
func (f Field) Get(reg uint32) uint32 {
	return reg & f.Mask() >> f.Shift
}

// Put returns reg with f set to v. Bits of v outside the field's width are
// discarded.
func (f Field) Put(reg, v uint32) uint32 {
	return reg&^f.Mask() | v<<f.Shift&f.Mask()
}

// LoadBits returns the bits of register r selected by mask.
func LoadBits(b Bus, r Addr, mask uint32) uint32 {
	return b.Load(r) & mask
}

// StoreBits sets the bits of register r selected by mask to the
// corresponding bits of v, leaving all other bits unchanged.
func StoreBits(b Bus, r Addr, mask, v uint32) {
	b.Store(r, b.Load(r)&^mask|v&mask)
}

// StoreField sets field f of register r to v.
func StoreField(b Bus, r Addr, f Field, v uint32) {
	b.Store(r, f.Put(b.Load(r), v))
}

// Busy reports whether any bit of mask is set in register r.
func Busy(b Bus, r Addr, mask uint32) bool {
	return b.Load(r)&mask != 0
}

// WaitClear spins until all bits of mask are cleared in register r. There is
// no timeout, a peripheral that never clears the bits hangs the caller.
func WaitClear(b Bus, r Addr, mask uint32) {
	for Busy(b, r, mask) {
	}
}

// WaitSet spins until any bit of mask is set in register r.
func WaitSet(b Bus, r Addr, mask uint32) {
	for !Busy(b, r, mask) {
	}
}
