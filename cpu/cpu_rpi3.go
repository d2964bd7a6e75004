//go:build tinygo && rpi3

package cpu

import (
	"device/arm64"
)

// Hardware implements the instruction level primitives of the running core.
// It is a value type, so generic code instantiated with it calls the methods
// directly instead of through an interface table.
type Hardware struct{}

func (Hardware) CoreID() uint8 {
	return Core(uint64(arm64.AsmFull("mrs {}, MPIDR_EL1", nil)))
}

func (Hardware) WaitForEvent() {
	arm64.Asm("wfe")
}

func (Hardware) Barrier() {
	arm64.Asm("dsb sy")
	arm64.Asm("isb")
}

// Jump branches to entry without setting up a return address.
func (Hardware) Jump(entry uintptr) {
	arm64.AsmFull("br {entry}", map[string]interface{}{"entry": entry})
}

// Spin burns roughly n cycles.
func (Hardware) Spin(n int) {
	for range n {
		arm64.Asm("nop")
	}
}
