//go:build tinygo && rpi3

// Kernel is the firmware that runs where it was loaded. It prints what the
// VideoCore knows about the board and halts.
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

// reset is called by start.S on every core with the load time address of
// the runtime entry and the size of the image.
//
//export rpiboot_reset
func reset(init, size uintptr) {
	var fixups boot.Table
	entry := fixups.Add(init)
	d := boot.Dispatcher[cpu.Hardware, physmem.Direct]{
		Layout: boot.Kernel(size),
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

	log.Info().Msg("kernel started")
	board.Report()

	machine.Fatal(console.Default(), hw, "end of kernel")
}
