package send_test

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/clktmr/rpiboot/chainload"
	"github.com/clktmr/rpiboot/physmem"
	"github.com/clktmr/rpiboot/tools/send"
	"github.com/rs/zerolog"
)

// board runs a chainload session on conn, then prints a greeting from the
// "started" program and hangs up.
type board struct {
	conn  net.Conn
	r     *bufio.Reader
	mem   *physmem.Arena
	jumps []uintptr
}

func (b *board) ReadByte() (byte, error) { return b.r.ReadByte() }

func (b *board) WriteByte(c byte) error {
	_, err := b.conn.Write([]byte{c})
	return err
}

func (b *board) Jump(entry uintptr) {
	b.jumps = append(b.jumps, entry)
	b.conn.Write([]byte("hello from 0x80000\n"))
}

func TestTransfer(t *testing.T) {
	host, device := net.Pipe()
	b := &board{conn: device, r: bufio.NewReader(device), mem: physmem.NewArena(chainload.LoadAddr, 0x100)}
	done := make(chan error, 1)
	go func() {
		defer device.Close()
		b.conn.Write([]byte("chainloader started\n"))
		done <- chainload.NewSession(b, b.mem, b, zerolog.Nop()).Run()
	}()

	var console bytes.Buffer
	payload := []byte("\x00\x00\x00\x14kernel")
	if err := send.Transfer(host, &console, payload, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}
	if err := <-done; !errors.Is(err, chainload.ErrReturned) {
		t.Fatalf("session: %v", err)
	}

	if !bytes.Equal(b.mem.Slice(chainload.LoadAddr, len(payload)), payload) {
		t.Error("payload corrupted")
	}
	expected := "chainloader started\n" + chainload.Magic + "hello from 0x80000\n"
	if console.String() != expected {
		t.Errorf("console %q, expected %q", console.String(), expected)
	}
}

func TestTransferNoBoard(t *testing.T) {
	host, device := net.Pipe()
	device.Close()

	err := send.Transfer(host, io.Discard, []byte{1}, zerolog.Nop())
	if !errors.Is(err, io.EOF) {
		t.Errorf("got %v", err)
	}
}
