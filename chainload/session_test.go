package chainload_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/clktmr/rpiboot/chainload"
	"github.com/clktmr/rpiboot/physmem"
	"github.com/rs/zerolog"
)

// transport replays canned input and records the output.
type transport struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func newTransport(in ...byte) *transport {
	return &transport{in: bytes.NewReader(in)}
}

func (t *transport) ReadByte() (byte, error) { return t.in.ReadByte() }
func (t *transport) WriteByte(c byte) error { return t.out.WriteByte(c) }

type launcher struct {
	jumps []uintptr
}

func (l *launcher) Jump(entry uintptr) { l.jumps = append(l.jumps, entry) }

func TestSessionLoadsPayload(t *testing.T) {
	tr := newTransport(0x04, 0x00, 0x00, 0x00, 0xde, 0xad, 0xbe, 0xef)
	mem := physmem.NewArena(chainload.LoadAddr, 0x100)
	var l launcher
	var log bytes.Buffer
	s := chainload.NewSession(tr, mem, &l, zerolog.New(&log))

	err := s.Run()

	if !errors.Is(err, chainload.ErrReturned) {
		t.Fatalf("got %v, expected ErrReturned", err)
	}
	if expected := chainload.Magic + "\x03\x03\x03" + "OK"; tr.out.String() != expected {
		t.Errorf("sent %q, expected %q", tr.out.String(), expected)
	}
	if got := mem.Slice(chainload.LoadAddr, 5); !bytes.Equal(got, []byte{0xde, 0xad, 0xbe, 0xef, 0}) {
		t.Errorf("memory % x", got)
	}
	if len(l.jumps) != 1 || l.jumps[0] != chainload.LoadAddr {
		t.Errorf("jumps %#x", l.jumps)
	}
	if tr.in.Len() != 0 {
		t.Errorf("%d bytes left unread", tr.in.Len())
	}
	if !bytes.Contains(log.Bytes(), []byte(`"size":4`)) {
		t.Errorf("log %s", log.String())
	}
}

func TestSessionStates(t *testing.T) {
	tr := newTransport(0x02, 0x00, 0x00, 0x00, 0x11, 0x22)
	mem := physmem.NewArena(chainload.LoadAddr, 0x10)
	var l launcher
	s := chainload.NewSession(tr, mem, &l, zerolog.Nop())

	steps := []struct {
		state     chainload.State
		remaining uint32
		sent      string
	}{
		{chainload.AwaitSize, 0, chainload.Magic + "\x03\x03\x03"},
		{chainload.ReceivingPayload, 2, chainload.Magic + "\x03\x03\x03OK"},
		{chainload.ReceivingPayload, 1, chainload.Magic + "\x03\x03\x03OK"},
		{chainload.Launch, 0, chainload.Magic + "\x03\x03\x03OK"},
	}
	if s.State() != chainload.AwaitSizeRequest {
		t.Fatalf("initial state %v", s.State())
	}
	for i, step := range steps {
		if err := s.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if s.State() != step.state || s.Remaining() != step.remaining {
			t.Fatalf("step %d: %v/%d, expected %v/%d", i, s.State(), s.Remaining(), step.state, step.remaining)
		}
		if tr.out.String() != step.sent {
			t.Errorf("step %d: sent %q", i, tr.out.String())
		}
		if len(l.jumps) != 0 {
			t.Fatalf("step %d: launched early", i)
		}
	}
	if err := s.Step(); !errors.Is(err, chainload.ErrReturned) {
		t.Fatalf("got %v", err)
	}
	if len(l.jumps) != 1 {
		t.Errorf("jumps %v", l.jumps)
	}
}

func TestSessionEmptyPayload(t *testing.T) {
	tr := newTransport(0, 0, 0, 0)
	var l launcher
	s := chainload.NewSession(tr, physmem.NewArena(chainload.LoadAddr, 0), &l, zerolog.Nop())

	if err := s.Run(); !errors.Is(err, chainload.ErrReturned) {
		t.Fatalf("got %v", err)
	}
	if len(l.jumps) != 1 {
		t.Errorf("jumps %v", l.jumps)
	}
}

func TestSessionTransportError(t *testing.T) {
	tests := map[string]struct {
		in []byte
	}{
		"short size":    {[]byte{0x04, 0x00}},
		"short payload": {[]byte{0x04, 0x00, 0x00, 0x00, 0xde}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			tr := newTransport(tc.in...)
			var l launcher
			s := chainload.NewSession(tr, physmem.NewArena(chainload.LoadAddr, 0x10), &l, zerolog.Nop())

			if err := s.Run(); !errors.Is(err, io.EOF) {
				t.Fatalf("got %v, expected EOF", err)
			}
			if len(l.jumps) != 0 {
				t.Error("launched a partial payload")
			}
		})
	}
}

func TestStateString(t *testing.T) {
	if got := chainload.ReceivingPayload.String(); got != "ReceivingPayload" {
		t.Errorf("got %q", got)
	}
	if got := chainload.State(9).String(); got != "State(?)" {
		t.Errorf("got %q", got)
	}
}
