// Package cpu holds constants and primitives of the Cortex-A53 cores.
//
// The instruction level primitives are only available on the target. All
// other code reaches them through small interfaces, see [boot.CPU].
package cpu

// WordSize is the size of a machine word in bytes.
const WordSize = 8

// CacheLineSize is the data cache line size of the Cortex-A53.
const CacheLineSize = 64

// CoreMask selects the core number from the affinity level 0 bits of
// MPIDR_EL1.
const CoreMask = 0x3

// BootCore is the only core that ever runs application code.
const BootCore = 0

// Core returns the core number encoded in the value of MPIDR_EL1.
func Core(mpidr uint64) uint8 {
	return uint8(mpidr & CoreMask)
}
