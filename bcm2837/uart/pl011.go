package uart

import (
	"fmt"

	"github.com/clktmr/rpiboot/bcm2837"
	"github.com/clktmr/rpiboot/bcm2837/gpio"
	"github.com/clktmr/rpiboot/bcm2837/mailbox"
	"github.com/clktmr/rpiboot/mmio"
)

const pl011Base = bcm2837.PeripheralBase + bcm2837.UART0Offset

// PL011 registers
const (
	RegDR   = pl011Base + 0x00
	RegFR   = pl011Base + 0x18
	RegIBRD = pl011Base + 0x24
	RegFBRD = pl011Base + 0x28
	RegLCRH = pl011Base + 0x2c
	RegCR   = pl011Base + 0x30
	RegIMSC = pl011Base + 0x38
	RegICR  = pl011Base + 0x44
)

const (
	FlagRXFE uint32 = 1 << 4
	FlagTXFF uint32 = 1 << 5

	LCRHWordLen8 uint32 = 0b11 << 5

	CREnable   uint32 = 1 << 0
	CRTxEnable uint32 = 1 << 8
	CRRxEnable uint32 = 1 << 9

	icrAll = 0x7ff
)

// PL011 clock and divisors for 115200 baud: 4 MHz / (16 * 115200) = 2.17,
// which is an integer part of 2 and a fractional part of 0.17 * 64 = 11.
const (
	ClockRate = 4_000_000
	divInt    = 2
	divFrac   = 11
)

// PL011 is UART0, the full featured ARM PrimeCell UART.
type PL011 struct {
	bus  mmio.Bus
	gpio *gpio.GPIO
}

func NewPL011(bus mmio.Bus, g *gpio.GPIO) *PL011 {
	return &PL011{bus: bus, gpio: g}
}

// Init configures UART0 for 115200 8N1 on GPIO 14/15. The UART reference
// clock is set through clk first. If that fails the port stays disabled.
func (u *PL011) Init(clk ClockSetter) error {
	u.bus.Store(RegCR, 0)

	if _, err := clk.SetClockRate(mailbox.ClockUART, ClockRate, false); err != nil {
		return fmt.Errorf("%w: %w", ErrClock, err)
	}

	u.gpio.Select(pinTXD, gpio.Alt0)
	u.gpio.Select(pinRXD, gpio.Alt0)
	u.gpio.SetPull(gpio.PullOff, pinTXD, pinRXD)

	u.bus.Store(RegICR, icrAll)
	u.bus.Store(RegIBRD, divInt)
	u.bus.Store(RegFBRD, divFrac)
	u.bus.Store(RegLCRH, LCRHWordLen8)
	u.bus.Store(RegCR, CREnable|CRTxEnable|CRRxEnable)
	return nil
}

// ReadByte blocks until a byte was received.
func (u *PL011) ReadByte() (byte, error) {
	mmio.WaitClear(u.bus, RegFR, FlagRXFE)
	return byte(u.bus.Load(RegDR)), nil
}

// WriteByte blocks until there is room in the transmit FIFO.
func (u *PL011) WriteByte(c byte) error {
	mmio.WaitClear(u.bus, RegFR, FlagTXFF)
	u.bus.Store(RegDR, uint32(c))
	return nil
}

func (u *PL011) Write(p []byte) (int, error) {
	return writeCRLF(u, p)
}
