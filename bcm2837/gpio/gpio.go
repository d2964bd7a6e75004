// Package gpio configures the function and pull resistors of GPIO pins.
package gpio

import (
	"github.com/clktmr/rpiboot/bcm2837"
	"github.com/clktmr/rpiboot/mmio"
)

const baseAddr = bcm2837.PeripheralBase + bcm2837.GPIOOffset

const (
	RegFSEL0     = baseAddr + 0x00
	RegSET0      = baseAddr + 0x1c
	RegCLR0      = baseAddr + 0x28
	RegLEV0      = baseAddr + 0x34
	RegPUD       = baseAddr + 0x94
	RegPUDCLK0   = baseAddr + 0x98
	RegPUDCLK1   = baseAddr + 0x9c
	settleCycles = 150
)

// Pin is a BCM GPIO number.
type Pin uint8

// Function is the value of a pin's function select field.
type Function uint32

const (
	Input  Function = 0b000
	Output Function = 0b001
	Alt0   Function = 0b100
	Alt1   Function = 0b101
	Alt2   Function = 0b110
	Alt3   Function = 0b111
	Alt4   Function = 0b011
	Alt5   Function = 0b010
)

// Pull selects the pull resistor of a pin.
type Pull uint32

const (
	PullOff  Pull = 0b00
	PullDown Pull = 0b01
	PullUp   Pull = 0b10
)

// Spinner burns CPU cycles.
type Spinner interface {
	Spin(cycles int)
}

type GPIO struct {
	bus   mmio.Bus
	delay Spinner
}

func New(bus mmio.Bus, delay Spinner) *GPIO {
	return &GPIO{bus: bus, delay: delay}
}

func fsel(p Pin) (mmio.Addr, mmio.Field) {
	return RegFSEL0 + mmio.Addr(4*(p/10)), mmio.Field{Shift: 3 * uint8(p%10), Width: 3}
}

// Select sets the function of pin p.
func (g *GPIO) Select(p Pin, f Function) {
	reg, field := fsel(p)
	mmio.StoreField(g.bus, reg, field, uint32(f))
}

// Function returns the current function of pin p.
func (g *GPIO) Function(p Pin) Function {
	reg, field := fsel(p)
	return Function(field.Get(g.bus.Load(reg)))
}

// SetPull applies pull to pins. The control signal must be held for 150
// cycles before and after it is clocked into the pins.
func (g *GPIO) SetPull(pull Pull, pins ...Pin) {
	var clk0, clk1 uint32
	for _, p := range pins {
		if p < 32 {
			clk0 |= 1 << p
		} else {
			clk1 |= 1 << (p - 32)
		}
	}

	g.bus.Store(RegPUD, uint32(pull))
	g.delay.Spin(settleCycles)
	if clk0 != 0 {
		g.bus.Store(RegPUDCLK0, clk0)
	}
	if clk1 != 0 {
		g.bus.Store(RegPUDCLK1, clk1)
	}
	g.delay.Spin(settleCycles)
	if clk0 != 0 {
		g.bus.Store(RegPUDCLK0, 0)
	}
	if clk1 != 0 {
		g.bus.Store(RegPUDCLK1, 0)
	}
}
