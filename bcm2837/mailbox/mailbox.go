// Package mailbox implements the property protocol of the VideoCore mailbox.
//
// A property call writes a request into a message buffer in RAM, passes the
// buffer's address through the mailbox WRITE register and polls the READ
// register until the VideoCore hands the same address back. The VideoCore
// overwrites the request with its response in place.
//
// There is exactly one message buffer. Calls must not overlap, which callers
// ensure by only ever issuing them from the boot core.
package mailbox

import (
	"errors"
	"unsafe"

	"github.com/rs/zerolog"

	"github.com/clktmr/rpiboot/cpu"
	"github.com/clktmr/rpiboot/mmio"
)

// Capacity is the size of the message buffer in words.
const Capacity = 36

const (
	codeRequest  uint32 = 0x0000_0000
	codeSuccess  uint32 = 0x8000_0000
	codeError    uint32 = 0x8000_0001
	valuesOffset        = 5
)

var (
	ErrResponse = errors.New("mailbox: error parsing request buffer")
	ErrUnknown  = errors.New("mailbox: unknown response code")
	ErrTag      = errors.New("mailbox: tag not in catalog")
	ErrArgs     = errors.New("mailbox: value count does not match tag")
)

// ResponseCode is the outcome the VideoCore reports in word 1 of a message.
type ResponseCode int

const (
	ResponseSuccess ResponseCode = iota
	ResponseError
	ResponseUnknown
)

// DecodeResponse classifies the response code word of a message.
func DecodeResponse(word uint32) ResponseCode {
	switch word {
	case codeSuccess:
		return ResponseSuccess
	case codeError:
		return ResponseError
	}
	return ResponseUnknown
}

// Err returns nil for ResponseSuccess and the matching error otherwise.
func (r ResponseCode) Err() error {
	switch r {
	case ResponseSuccess:
		return nil
	case ResponseError:
		return ErrResponse
	}
	return ErrUnknown
}

// The message buffer must be 16 byte aligned, since the low four bits of its
// address carry the channel.
var shared [Capacity + 3]uint32

// Client issues property calls.
type Client struct {
	bus mmio.Bus
	msg []uint32
	ch  Channel
	log zerolog.Logger
}

// New returns a client using the shared message buffer and the ARM to
// VideoCore property channel.
func New(bus mmio.Bus, log zerolog.Logger) *Client {
	return &Client{
		bus: bus,
		msg: cpu.AlignedWords(shared[:], Capacity, 16),
		ch:  ChannelArmToVC,
		log: log,
	}
}

// Message returns the message buffer. Its contents are only meaningful
// while no call is in flight.
func (c *Client) Message() []uint32 {
	return c.msg
}

func (c *Client) addr() uint32 {
	return uint32(uintptr(unsafe.Pointer(&c.msg[0])))
}

// Call requests the property tag. The length of req and resp must match the
// tag's catalog entry. On success the response values are copied to resp.
func (c *Client) Call(tag Tag, req, resp []uint32) error {
	p, ok := Lookup(tag)
	if !ok {
		return ErrTag
	}
	if len(req) != p.Request || len(resp) != p.Response {
		return ErrArgs
	}

	n := p.ValueWords()
	m := c.msg
	m[0] = uint32(p.Size())
	m[1] = codeRequest
	m[2] = uint32(tag)
	m[3] = uint32(4 * n)
	m[4] = codeRequest
	values := m[valuesOffset : valuesOffset+n]
	clear(values)
	copy(values, req)
	m[valuesOffset+n] = uint32(TagEnd)

	err := c.exchange().Err()
	if err != nil {
		c.log.Debug().Stringer("tag", tag).Err(err).Msg("property call failed")
		return err
	}
	copy(resp, values)
	return nil
}

// exchange hands the message to the VideoCore and waits for it to come back.
// Responses for other buffers or channels are dropped.
func (c *Client) exchange() ResponseCode {
	addr := c.addr()
	c.bus.Barrier()

	mmio.WaitClear(c.bus, RegStatus, StatusFull)
	c.bus.Store(RegWrite, pack(addr, c.ch))

	for {
		mmio.WaitClear(c.bus, RegStatus, StatusEmpty)
		resp := c.bus.Load(RegRead)
		if resp&channelMask == uint32(c.ch) && resp&^channelMask == addr&^channelMask {
			return DecodeResponse(c.msg[1])
		}
	}
}
