package uart

import (
	"github.com/clktmr/rpiboot/bcm2837"
	"github.com/clktmr/rpiboot/bcm2837/gpio"
	"github.com/clktmr/rpiboot/mmio"
)

const auxBase = bcm2837.PeripheralBase + bcm2837.AuxOffset

// Auxiliary peripheral and mini UART registers
const (
	RegAuxEnables = auxBase + 0x04
	RegMuIO       = auxBase + 0x40
	RegMuIER      = auxBase + 0x44
	RegMuIIR      = auxBase + 0x48
	RegMuLCR      = auxBase + 0x4c
	RegMuMCR      = auxBase + 0x50
	RegMuLSR      = auxBase + 0x54
	RegMuCNTL     = auxBase + 0x60
	RegMuBaud     = auxBase + 0x68
)

const (
	AuxMiniUART uint32 = 1 << 0

	LSRDataReady uint32 = 1 << 0
	LSRTxEmpty   uint32 = 1 << 5

	LCR8Bit       uint32 = 0b11
	IIRClearFIFOs uint32 = 0xc6
	CNTLRxTx      uint32 = 0b11

	// 250 MHz system clock / (8 * (270 + 1)) = 115313 baud
	Baud115200 = 270
)

// Mini is the auxiliary mini UART. Its baud rate is derived from the core
// clock, so it needs no mailbox call and is usable before the mailbox is.
type Mini struct {
	bus  mmio.Bus
	gpio *gpio.GPIO
}

func NewMini(bus mmio.Bus, g *gpio.GPIO) *Mini {
	return &Mini{bus: bus, gpio: g}
}

// Init configures the mini UART for 115200 8N1 on GPIO 14/15.
func (u *Mini) Init() {
	mmio.StoreBits(u.bus, RegAuxEnables, AuxMiniUART, AuxMiniUART)
	u.bus.Store(RegMuIER, 0)
	u.bus.Store(RegMuCNTL, 0)
	u.bus.Store(RegMuLCR, LCR8Bit)
	u.bus.Store(RegMuMCR, 0)
	u.bus.Store(RegMuIER, 0)
	u.bus.Store(RegMuIIR, IIRClearFIFOs)
	u.bus.Store(RegMuBaud, Baud115200)

	u.gpio.Select(pinTXD, gpio.Alt5)
	u.gpio.Select(pinRXD, gpio.Alt5)
	u.gpio.SetPull(gpio.PullOff, pinTXD, pinRXD)

	u.bus.Store(RegMuCNTL, CNTLRxTx)
}

// ReadByte blocks until a byte was received. Carriage returns are read as
// newlines.
func (u *Mini) ReadByte() (byte, error) {
	mmio.WaitSet(u.bus, RegMuLSR, LSRDataReady)
	c := byte(u.bus.Load(RegMuIO))
	if c == '\r' {
		c = '\n'
	}
	return c, nil
}

func (u *Mini) WriteByte(c byte) error {
	mmio.WaitSet(u.bus, RegMuLSR, LSRTxEmpty)
	u.bus.Store(RegMuIO, uint32(c))
	return nil
}

func (u *Mini) Write(p []byte) (int, error) {
	return writeCRLF(u, p)
}
