//go:build tinygo && rpi3

// Chainloader moves itself out of the way of the load address, receives a
// program over UART0 and starts it.
package main

import (
	"github.com/clktmr/rpiboot/boards/rpi3"
	"github.com/clktmr/rpiboot/boot"
	"github.com/clktmr/rpiboot/console"
	"github.com/clktmr/rpiboot/cpu"
	"github.com/clktmr/rpiboot/machine"
	"github.com/clktmr/rpiboot/mmio"
	"github.com/clktmr/rpiboot/physmem"
)

//export rpiboot_reset
func reset(init, size uintptr) {
	var fixups boot.Table
	entry := fixups.Add(init)
	d := boot.Dispatcher[cpu.Hardware, physmem.Direct]{
		Layout: boot.Chainloader(size),
		Fixups: &fixups,
		Entry:  entry,
	}
	d.Run()
}

func main() {
	var hw cpu.Hardware
	log := console.Logger()
	board := rpi3.New(mmio.Physical{}, hw, log)
	board.InitConsole()
	log.Info().Str("link", addr(boot.ChainloaderLinkAddr)).Msg("chainloader started")

	board.RunChainloader(physmem.Direct{})
}

func addr(a uintptr) string {
	var buf [16]byte
	return "0x" + string(machine.Hex(buf[:], uint64(a)))
}
