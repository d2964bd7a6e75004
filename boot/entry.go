package boot

import (
	"io"

	"github.com/clktmr/rpiboot/cpu"
	"github.com/clktmr/rpiboot/debug"
	"github.com/clktmr/rpiboot/machine"
	"github.com/clktmr/rpiboot/physmem"
)

// CPU is the set of instruction level primitives the dispatcher needs from
// the core it runs on.
//
// The dispatcher never changes the stack pointer. The reset stub must have
// set the boot core's stack to Layout.StackTop before calling into Go, since
// moving sp under a compiled frame leaves its spills and arguments at the
// old offsets from the new sp.
type CPU interface {
	machine.Waiter

	CoreID() uint8

	// Barrier completes all outstanding memory accesses and flushes the
	// pipeline.
	Barrier()

	// Jump transfers control to entry without a return address.
	Jump(entry uintptr)
}

// Dispatcher is the first code run on every core after reset.
type Dispatcher[C CPU, M physmem.Words] struct {
	CPU    C
	Mem    M
	Layout Layout

	// Fixups holds the address of the initialization routine at index
	// Entry, as computed before relocation.
	Fixups *Table
	Entry  int

	// Diag receives a line after relocation. It is nil on hardware, where
	// no output device is set up this early.
	Diag io.Writer
}

// Run parks every core but the boot core. The boot core relocates the image
// if it was not loaded at its link address and jumps to the initialization
// routine. Run never returns.
func (d *Dispatcher[C, M]) Run() {
	if d.CPU.CoreID() != cpu.BootCore {
		machine.Park(d.CPU)
	}

	d.CPU.Barrier()

	p := d.Layout.Plan()
	if d.Layout.Relocates() {
		debug.Assert(p.ForwardSafe(), "boot: image overlaps itself in copy direction")
		Relocate(d.Mem, p)
		d.CPU.Barrier()
		d.report(p)
	}

	d.Fixups.Resolve(p)
	d.CPU.Jump(d.Fixups.Addr(d.Entry))

	machine.FatalAt(d.Diag, d.CPU, "boot: returned from", uint64(d.Fixups.Addr(d.Entry)))
}

func (d *Dispatcher[C, M]) report(p Plan) {
	if d.Diag == nil {
		return
	}
	var buf [16]byte
	io.WriteString(d.Diag, "boot: relocated 0x")
	d.Diag.Write(machine.Hex(buf[:], uint64(p.From)))
	io.WriteString(d.Diag, " to 0x")
	d.Diag.Write(machine.Hex(buf[:], uint64(p.Image.Start)))
	io.WriteString(d.Diag, "\n")
}
