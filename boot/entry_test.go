package boot_test

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/clktmr/rpiboot/boot"
	"github.com/clktmr/rpiboot/physmem"
)

// core records what the dispatcher does. Jump and parking end the
// goroutine, since neither returns on hardware.
type core struct {
	id     uint8
	events []string
	waits  int
}

func (c *core) CoreID() uint8 { return c.id }

func (c *core) WaitForEvent() {
	c.waits++
	if c.waits == 100 {
		c.events = append(c.events, "parked")
		runtime.Goexit()
	}
}

func (c *core) Barrier() {
	c.events = append(c.events, "barrier")
}

func (c *core) Jump(entry uintptr) {
	c.events = append(c.events, fmt.Sprintf("jump %#x", entry))
	runtime.Goexit()
}

// memory logs the first store into the same event list as the core.
type memory struct {
	*physmem.Arena
	c      *core
	stores int
}

func (m *memory) StoreWord(addr uintptr, v uint64) {
	if m.stores == 0 {
		m.c.events = append(m.c.events, "relocate")
	}
	m.stores++
	m.Arena.StoreWord(addr, v)
}

func run(d *boot.Dispatcher[*core, *memory]) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run()
		panic("dispatcher returned")
	}()
	<-done
}

// testLayout moves a 64 byte image from 0x80000 to 0x81000, within a small
// arena.
func testLayout() boot.Layout {
	return boot.Layout{
		StackTop: 0x8_0000,
		Image:    boot.Range{Start: 0x8_1000, End: 0x8_1040},
		Load:     0x8_0000,
	}
}

func TestSecondaryCoresPark(t *testing.T) {
	for id := uint8(1); id < 4; id++ {
		c := &core{id: id}
		mem := &memory{Arena: physmem.NewArena(0x8_0000, 0x2000), c: c}
		var fixups boot.Table
		entry := fixups.Add(0x8_0100)

		run(&boot.Dispatcher[*core, *memory]{
			CPU: c, Mem: mem, Layout: testLayout(), Fixups: &fixups, Entry: entry,
		})

		if len(c.events) != 1 || c.events[0] != "parked" {
			t.Errorf("core %d: %v", id, c.events)
		}
		if mem.stores != 0 {
			t.Errorf("core %d wrote memory", id)
		}
		if fixups.Resolved() {
			t.Errorf("core %d resolved fixups", id)
		}
	}
}

func TestBootCoreRelocates(t *testing.T) {
	c := &core{}
	mem := &memory{Arena: physmem.NewArena(0x8_0000, 0x2000), c: c}
	pattern := fill(mem.Arena, 0x8_0000, 8)
	var fixups boot.Table
	entry := fixups.Add(0x8_0020)
	var diag bytes.Buffer

	run(&boot.Dispatcher[*core, *memory]{
		CPU: c, Mem: mem, Layout: testLayout(), Fixups: &fixups, Entry: entry, Diag: &diag,
	})

	expected := []string{"barrier", "relocate", "barrier", "jump 0x81020"}
	if strings.Join(c.events, ", ") != strings.Join(expected, ", ") {
		t.Fatalf("got %v, expected %v", c.events, expected)
	}
	if got := read(mem.Arena, 0x8_1000, 8); !equal(got, pattern) {
		t.Errorf("image not relocated: %x", got)
	}
	if !strings.Contains(diag.String(), "0000000000081000") {
		t.Errorf("diagnostics %q", diag.String())
	}
}

func TestBootCoreWithoutRelocation(t *testing.T) {
	c := &core{}
	mem := &memory{Arena: physmem.NewArena(0x8_0000, 0x2000), c: c}
	var fixups boot.Table
	entry := fixups.Add(0x8_0020)

	run(&boot.Dispatcher[*core, *memory]{
		CPU: c, Mem: mem, Layout: boot.Kernel(0x1000), Fixups: &fixups, Entry: entry,
	})

	expected := []string{"barrier", "jump 0x80020"}
	if strings.Join(c.events, ", ") != strings.Join(expected, ", ") {
		t.Fatalf("got %v, expected %v", c.events, expected)
	}
}

// The boot core runs on the stack the reset stub gave it, so that stack
// must end below everything the dispatcher copies or the chainloader
// receives.
func TestStackBelowImages(t *testing.T) {
	tests := map[string]boot.Layout{
		"kernel":      boot.Kernel(0x10_0000),
		"chainloader": boot.Chainloader(0x10_0000),
	}
	for name, l := range tests {
		t.Run(name, func(t *testing.T) {
			if l.StackTop > l.Load || l.StackTop > l.Image.Start {
				t.Errorf("stack top %#x above image %#x loaded at %#x", l.StackTop, l.Image.Start, l.Load)
			}
			if l.StackTop > boot.LoadAddr {
				t.Errorf("stack top %#x above payload at %#x", l.StackTop, boot.LoadAddr)
			}
		})
	}
}
