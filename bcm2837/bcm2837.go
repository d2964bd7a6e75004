// Package bcm2837 describes the peripheral address space of the Raspberry Pi
// 3 SoC as seen from the ARM cores.
//
// The subpackages contain drivers for the peripherals used during boot. They
// access registers exclusively through an [mmio.Bus].
package bcm2837

import "github.com/clktmr/rpiboot/mmio"

// PeripheralBase is the ARM physical address of the peripheral bus.
const PeripheralBase mmio.Addr = 0x3f00_0000

// Peripheral block offsets from [PeripheralBase].
const (
	MailboxOffset = 0x0000_b880
	GPIOOffset    = 0x0020_0000
	UART0Offset   = 0x0020_1000
	AuxOffset     = 0x0021_5000
)
