// Package rpi3 brings up the Raspberry Pi 3 after the boot core has reached
// its initialization routine. Both firmware programs are built from it: the
// kernel reports what the VideoCore knows about the board, the chainloader
// receives another program over UART0.
package rpi3

import (
	"io"

	"github.com/clktmr/rpiboot/bcm2837/gpio"
	"github.com/clktmr/rpiboot/bcm2837/mailbox"
	"github.com/clktmr/rpiboot/bcm2837/uart"
	"github.com/clktmr/rpiboot/chainload"
	"github.com/clktmr/rpiboot/console"
	"github.com/clktmr/rpiboot/machine"
	"github.com/clktmr/rpiboot/mmio"
	"github.com/clktmr/rpiboot/physmem"
	"github.com/rs/zerolog"
)

// CPU is what the board needs from the running core.
type CPU interface {
	machine.Waiter
	gpio.Spinner
	chainload.Launcher
}

type Board struct {
	cpu CPU
	log zerolog.Logger

	GPIO    *gpio.GPIO
	Mailbox *mailbox.Client
	UART0   *uart.PL011
	Mini    *uart.Mini

	// Diag receives the line written before a fatal halt.
	Diag io.Writer
}

func New(bus mmio.Bus, cpu CPU, log zerolog.Logger) *Board {
	g := gpio.New(bus, cpu)
	return &Board{
		cpu:     cpu,
		log:     log,
		GPIO:    g,
		Mailbox: mailbox.New(bus, log.With().Str("dev", "mbox").Logger()),
		UART0:   uart.NewPL011(bus, g),
		Mini:    uart.NewMini(bus, g),
		Diag:    console.Default(),
	}
}

// InitConsole sets up the mini UART and directs the console to it.
func (b *Board) InitConsole() {
	b.Mini.Init()
	console.Init(b.Mini)
}

// InitTransport sets up UART0 for chainloading. It takes GPIO 14/15 from the
// console, so nothing is printed on the header afterwards.
func (b *Board) InitTransport() error {
	return b.UART0.Init(b.Mailbox)
}

// Report logs the board identity and state as told by the VideoCore. Most
// properties are informational. Without a MAC the board is considered
// unusable and the core halts.
func (b *Board) Report() {
	mac, err := b.Mailbox.BoardMAC()
	if err != nil {
		b.log.Error().Err(err).Msg("board MAC")
		machine.Fatal(b.Diag, b.cpu, "no board MAC")
	}
	b.log.Info().Str("mac", formatMAC(mac)).Msg("board")

	ev := b.log.Info()
	if v, err := b.Mailbox.FirmwareRevision(); b.check(err, "firmware revision") {
		ev = ev.Uint32("firmware", v)
	}
	if v, err := b.Mailbox.BoardModel(); b.check(err, "board model") {
		ev = ev.Uint32("model", v)
	}
	if v, err := b.Mailbox.BoardRevision(); b.check(err, "board revision") {
		ev = ev.Hex("revision", be32(v))
	}
	if v, err := b.Mailbox.BoardSerial(); b.check(err, "board serial") {
		ev = ev.Uint64("serial", v)
	}
	ev.Msg("identity")

	ev = b.log.Info()
	if r, err := b.Mailbox.ARMMemory(); b.check(err, "ARM memory") {
		ev = ev.Uint32("arm_base", r.Base).Uint32("arm_size", r.Size)
	}
	if r, err := b.Mailbox.VCMemory(); b.check(err, "VC memory") {
		ev = ev.Uint32("vc_base", r.Base).Uint32("vc_size", r.Size)
	}
	if v, err := b.Mailbox.DMAChannels(); b.check(err, "DMA channels") {
		ev = ev.Hex("dma", be32(v))
	}
	ev.Msg("memory")

	ev = b.log.Info()
	if v, err := b.Mailbox.ClockRate(mailbox.ClockARM); b.check(err, "ARM clock") {
		ev = ev.Uint32("arm_hz", v)
	}
	if v, err := b.Mailbox.Temperature(); b.check(err, "temperature") {
		ev = ev.Uint32("temp_mC", v)
	}
	ev.Msg("state")
}

func (b *Board) check(err error, what string) bool {
	if err != nil {
		b.log.Warn().Err(err).Msg(what)
		return false
	}
	return true
}

// Chainload receives a program over UART0 into mem and starts it. The
// transport must have been initialized. It returns only if the transport
// fails or the started program returns.
func (b *Board) Chainload(mem physmem.Bytes) error {
	s := chainload.NewSession(b.UART0, mem, b.cpu, b.log.With().Str("dev", "uart0").Logger())
	return s.Run()
}

// RunChainloader is the chainloader's main loop. If UART0 cannot be clocked
// the core parks without any output, since the transport is the only way the
// host could learn about it. Otherwise it chainloads into mem and halts with
// a message on UART0 if that returns.
func (b *Board) RunChainloader(mem physmem.Bytes) {
	if err := b.InitTransport(); err != nil {
		machine.Park(b.cpu)
	}
	err := b.Chainload(mem)
	machine.Fatal(b.UART0, b.cpu, err.Error())
}

func be32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// formatMAC renders the low 48 bits of mac as hex digits, most significant
// byte first.
func formatMAC(mac uint64) string {
	var buf [16]byte
	return string(machine.Hex(buf[:], mac)[4:])
}
