package chainload

import (
	"io"

	"github.com/clktmr/rpiboot/physmem"
	"github.com/rs/zerolog"
	"github.com/sigurn/crc8"
)

// State is the position of a [Session] in the protocol.
type State uint8

const (
	AwaitSizeRequest State = iota
	AwaitSize
	ReceivingPayload
	Launch
)

func (s State) String() string {
	switch s {
	case AwaitSizeRequest:
		return "AwaitSizeRequest"
	case AwaitSize:
		return "AwaitSize"
	case ReceivingPayload:
		return "ReceivingPayload"
	case Launch:
		return "Launch"
	}
	return "State(?)"
}

// Transport is a blocking byte stream to the host.
type Transport interface {
	io.ByteReader
	io.ByteWriter
}

// Launcher transfers control to a received program.
type Launcher interface {
	Jump(entry uintptr)
}

// Session is the device end of the protocol. The payload is written to
// memory without any bound check; a payload larger than the memory above
// LoadAddr that is free overwrites whatever lies there, including the
// session's own program if it was not relocated out of the way.
type Session struct {
	tr     Transport
	mem    physmem.Bytes
	launch Launcher
	log    zerolog.Logger

	state     State
	size      uint32
	remaining uint32
	crc       uint8
}

func NewSession(tr Transport, mem physmem.Bytes, l Launcher, log zerolog.Logger) *Session {
	return &Session{tr: tr, mem: mem, launch: l, log: log}
}

func (s *Session) State() State { return s.state }

// Remaining returns the number of payload bytes still to be received.
func (s *Session) Remaining() uint32 { return s.remaining }

// Step advances the session by one state. While receiving, every step
// stores one payload byte. Step in the Launch state jumps to the payload and
// returns ErrReturned only if the jump comes back.
func (s *Session) Step() error {
	switch s.state {
	case AwaitSizeRequest:
		if err := s.write(Magic); err != nil {
			return err
		}
		if err := s.write(sizeRequest); err != nil {
			return err
		}
		s.state = AwaitSize

	case AwaitSize:
		var n uint32
		for i := range 4 {
			c, err := s.tr.ReadByte()
			if err != nil {
				return err
			}
			n |= uint32(c) << (8 * i)
		}
		s.size, s.remaining = n, n
		s.crc = crc8.Init(digestTable)
		s.log.Info().Uint32("size", n).Msg("receiving")
		if err := s.write(Ack); err != nil {
			return err
		}
		s.state = ReceivingPayload

	case ReceivingPayload:
		if s.remaining == 0 {
			s.state = Launch
			break
		}
		c, err := s.tr.ReadByte()
		if err != nil {
			return err
		}
		s.mem.StoreByte(LoadAddr+uintptr(s.size-s.remaining), c)
		b := [1]byte{c}
		s.crc = crc8.Update(s.crc, b[:], digestTable)
		s.remaining--
		if s.remaining == 0 {
			s.state = Launch
		}

	case Launch:
		s.log.Info().
			Uint32("size", s.size).
			Uint8("crc8", crc8.Complete(s.crc, digestTable)).
			Msg("launching")
		s.launch.Jump(LoadAddr)
		return ErrReturned
	}
	return nil
}

// Run steps the session until the payload is launched. It only returns on a
// transport error or with ErrReturned.
func (s *Session) Run() error {
	for {
		if err := s.Step(); err != nil {
			return err
		}
	}
}

func (s *Session) write(str string) error {
	for i := 0; i < len(str); i++ {
		if err := s.tr.WriteByte(str[i]); err != nil {
			return err
		}
	}
	return nil
}
