package rpi3_test

import (
	"bytes"
	"errors"
	"runtime"
	"strings"
	"testing"

	"github.com/clktmr/rpiboot/bcm2837/mailbox"
	"github.com/clktmr/rpiboot/bcm2837/mailbox/mailboxtest"
	"github.com/clktmr/rpiboot/bcm2837/uart"
	"github.com/clktmr/rpiboot/boards/rpi3"
	"github.com/clktmr/rpiboot/chainload"
	"github.com/clktmr/rpiboot/mmio/mmiotest"
	"github.com/clktmr/rpiboot/physmem"
	"github.com/rs/zerolog"
)

type core struct {
	waits int
	jumps []uintptr
}

func (c *core) WaitForEvent() {
	c.waits++
	if c.waits > 10 {
		runtime.Goexit()
	}
}

func (c *core) Spin(int) {}

func (c *core) Jump(entry uintptr) { c.jumps = append(c.jumps, entry) }

type fixture struct {
	board *rpi3.Board
	bus   *mmiotest.Bus
	vc    *mailboxtest.VideoCore
	cpu   *core
	log   bytes.Buffer
	diag  bytes.Buffer
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{bus: mmiotest.New(), cpu: &core{}}
	f.board = rpi3.New(f.bus, f.cpu, zerolog.New(&f.log))
	f.board.Diag = &f.diag
	f.vc = mailboxtest.New(f.bus, f.board.Mailbox)
	return f
}

// run calls fn on a separate goroutine, so a parked core ends only that
// goroutine.
func run(fn func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	<-done
}

func TestReport(t *testing.T) {
	f := setup(t)
	f.vc.Answer(mailbox.TagBoardMAC, 0x00eb_27b8, 0x0000_0100)
	f.vc.Answer(mailbox.TagFirmwareRevision, 0x5f1a_4f1e)
	f.vc.Answer(mailbox.TagBoardRevision, 0x00a0_2082)
	f.vc.Answer(mailbox.TagARMMemory, 0, 0x3b40_0000)
	f.vc.Answer(mailbox.TagClockRate, uint32(mailbox.ClockARM), 600_000_000)
	f.vc.Code(mailbox.TagTemperature, 0x8000_0001)

	run(f.board.Report)

	if f.cpu.waits != 0 {
		t.Fatalf("core parked: %s", f.diag.String())
	}
	log := f.log.String()
	for _, expected := range []string{
		`"mac":"010000eb27b8"`,
		`"firmware":1595559710`,
		`"revision":"00a02082"`,
		`"arm_size":994050048`,
		`"arm_hz":600000000`,
		`"level":"warn","error":"mailbox: error parsing request buffer","message":"temperature"`,
	} {
		if !strings.Contains(log, expected) {
			t.Errorf("missing %s in\n%s", expected, log)
		}
	}
	if strings.Contains(log, "temp_mC") {
		t.Error("failed property reported")
	}
}

func TestReportWithoutMAC(t *testing.T) {
	f := setup(t)
	f.vc.Code(mailbox.TagBoardMAC, 0x8000_0001)

	run(f.board.Report)

	if f.cpu.waits == 0 {
		t.Fatal("core did not park")
	}
	if f.diag.String() != "fatal: no board MAC\n" {
		t.Errorf("diag %q", f.diag.String())
	}
	if strings.Contains(f.log.String(), "identity") {
		t.Error("continued after fatal error")
	}
}

func TestInitTransport(t *testing.T) {
	f := setup(t)
	f.vc.Answer(mailbox.TagSetClockRate, uint32(mailbox.ClockUART), uart.ClockRate)

	if err := f.board.InitTransport(); err != nil {
		t.Fatal(err)
	}
	frames := f.vc.Frames()
	if len(frames) != 1 || mailbox.Tag(frames[0][2]) != mailbox.TagSetClockRate {
		t.Fatalf("frames %x", frames)
	}
	if req := frames[0][5:8]; req[0] != uint32(mailbox.ClockUART) || req[1] != uart.ClockRate || req[2] != 0 {
		t.Errorf("request %v", req)
	}
	if cr := f.bus.Load(uart.RegCR); cr&uart.CREnable == 0 {
		t.Errorf("UART0 not enabled: %#x", cr)
	}
}

func TestInitTransportClockFailure(t *testing.T) {
	f := setup(t)
	f.vc.Code(mailbox.TagSetClockRate, 0x8000_0001)

	err := f.board.InitTransport()
	if !errors.Is(err, mailbox.ErrResponse) {
		t.Fatalf("got %v", err)
	}
	if cr := f.bus.Load(uart.RegCR); cr != 0 {
		t.Errorf("UART0 enabled: %#x", cr)
	}
}

func TestChainload(t *testing.T) {
	f := setup(t)
	f.bus.Queue(uart.RegDR, 3, 0, 0, 0, 'a', 'r', 'm')
	mem := physmem.NewArena(chainload.LoadAddr, 0x10)

	err := f.board.Chainload(mem)

	if !errors.Is(err, chainload.ErrReturned) {
		t.Fatalf("got %v", err)
	}
	if got := string(mem.Slice(chainload.LoadAddr, 3)); got != "arm" {
		t.Errorf("memory %q", got)
	}
	var sent []byte
	for _, v := range f.bus.Stores(uart.RegDR) {
		sent = append(sent, byte(v))
	}
	if string(sent) != chainload.Magic+"\x03\x03\x03OK" {
		t.Errorf("sent %q", sent)
	}
	if len(f.cpu.jumps) != 1 || f.cpu.jumps[0] != chainload.LoadAddr {
		t.Errorf("jumps %#x", f.cpu.jumps)
	}
}

func TestRunChainloaderClockFailure(t *testing.T) {
	f := setup(t)
	f.vc.Code(mailbox.TagSetClockRate, 0x8000_0001)

	run(func() { f.board.RunChainloader(physmem.NewArena(chainload.LoadAddr, 0x10)) })

	if f.cpu.waits == 0 {
		t.Fatal("core did not park")
	}
	if f.diag.Len() != 0 || len(f.bus.Stores(uart.RegDR)) != 0 {
		t.Errorf("diagnostic %q, UART0 %x", f.diag.String(), f.bus.Stores(uart.RegDR))
	}
	if log := f.log.String(); strings.Contains(log, `"level":"error"`) || strings.Contains(log, `"level":"warn"`) {
		t.Errorf("logged %s", log)
	}
	if len(f.cpu.jumps) != 0 {
		t.Errorf("jumps %#x", f.cpu.jumps)
	}
}

func TestRunChainloaderReturned(t *testing.T) {
	f := setup(t)
	f.vc.Answer(mailbox.TagSetClockRate, uint32(mailbox.ClockUART), uart.ClockRate)
	f.bus.Queue(uart.RegDR, 1, 0, 0, 0, 'x')

	run(func() { f.board.RunChainloader(physmem.NewArena(chainload.LoadAddr, 0x10)) })

	if f.cpu.waits == 0 || len(f.cpu.jumps) != 1 {
		t.Fatalf("waits %d, jumps %#x", f.cpu.waits, f.cpu.jumps)
	}
	var sent []byte
	for _, v := range f.bus.Stores(uart.RegDR) {
		sent = append(sent, byte(v))
	}
	expected := chainload.Magic + "\x03\x03\x03OK" + "fatal: " + chainload.ErrReturned.Error() + "\r\n"
	if string(sent) != expected {
		t.Errorf("sent %q, expected %q", sent, expected)
	}
}
