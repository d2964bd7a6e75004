package chainload

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Sender is the host end of the protocol.
type Sender struct {
	rw   io.ReadWriter
	echo io.Writer
	log  zerolog.Logger
}

// NewSender returns a sender talking to a device over rw. Everything the
// device prints before requesting the size is copied to echo, which may be
// nil.
func NewSender(rw io.ReadWriter, echo io.Writer, log zerolog.Logger) *Sender {
	if echo == nil {
		echo = io.Discard
	}
	return &Sender{rw: rw, echo: echo, log: log}
}

// Send waits for the device to request the size, then transfers payload.
func (s *Sender) Send(payload []byte) error {
	if uint64(len(payload)) > MaxSize {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, len(payload))
	}

	if err := s.awaitRequest(); err != nil {
		return fmt.Errorf("waiting for size request: %w", err)
	}

	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(payload)))
	if _, err := s.rw.Write(size[:]); err != nil {
		return fmt.Errorf("sending size: %w", err)
	}

	var ack [len(Ack)]byte
	if _, err := io.ReadFull(s.rw, ack[:]); err != nil {
		return fmt.Errorf("reading ack: %w", err)
	}
	if string(ack[:]) != Ack {
		return fmt.Errorf("%w: got %q", ErrNoAck, ack[:])
	}

	s.log.Info().Int("size", len(payload)).Uint8("crc8", Digest(payload)).Msg("sending")
	if _, err := s.rw.Write(payload); err != nil {
		return fmt.Errorf("sending payload: %w", err)
	}
	return nil
}

// awaitRequest echoes device output until three ETX bytes in a row. ETX
// bytes that turn out not to be part of a request are echoed late.
func (s *Sender) awaitRequest() error {
	var (
		b      [1]byte
		etx    int
		recent []byte
	)
	for etx < 3 {
		if _, err := io.ReadFull(s.rw, b[:]); err != nil {
			return err
		}
		if b[0] == ETX {
			etx++
			continue
		}
		for ; etx > 0; etx-- {
			s.echo.Write([]byte{ETX})
		}
		s.echo.Write(b[:])

		recent = append(recent, b[0])
		if len(recent) > len(Magic) {
			recent = recent[1:]
		}
	}
	if string(recent) != Magic {
		s.log.Warn().Str("got", string(recent)).Msg("size requested without magic")
	}
	return nil
}
