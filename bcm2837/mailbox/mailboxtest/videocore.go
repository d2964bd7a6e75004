// Package mailboxtest provides a fake VideoCore answering property calls.
package mailboxtest

import (
	"sync"

	"github.com/clktmr/rpiboot/bcm2837/mailbox"
	"github.com/clktmr/rpiboot/mmio/mmiotest"
)

// VideoCore plays the firmware side of the mailbox on a [mmiotest.Bus].
// Every message written to the mailbox is recorded and answered in place with
// the values configured for its tag.
type VideoCore struct {
	mtx     sync.Mutex
	msg     []uint32
	values  map[mailbox.Tag][]uint32
	codes   map[mailbox.Tag]uint32
	foreign []uint32
	pending []uint32
	frames  [][]uint32
}

// New attaches a fake VideoCore to bus, serving the message buffer of c.
func New(bus *mmiotest.Bus, c *mailbox.Client) *VideoCore {
	vc := &VideoCore{
		msg:    c.Message(),
		values: make(map[mailbox.Tag][]uint32),
		codes:  make(map[mailbox.Tag]uint32),
	}
	bus.OnStore(mailbox.RegWrite, vc.receive)
	bus.OnLoad(mailbox.RegStatus, vc.status)
	bus.OnLoad(mailbox.RegRead, vc.read)
	return vc
}

// Answer sets the response values for tag.
func (vc *VideoCore) Answer(tag mailbox.Tag, values ...uint32) {
	vc.mtx.Lock()
	defer vc.mtx.Unlock()
	vc.values[tag] = values
}

// Code overrides the response code for tag. The default is success.
func (vc *VideoCore) Code(tag mailbox.Tag, code uint32) {
	vc.mtx.Lock()
	defer vc.mtx.Unlock()
	vc.codes[tag] = code
}

// Foreign queues words delivered through READ ahead of the next response.
func (vc *VideoCore) Foreign(words ...uint32) {
	vc.mtx.Lock()
	defer vc.mtx.Unlock()
	vc.foreign = append(vc.foreign, words...)
}

// Frames returns copies of all request messages as they were written, up to
// and including the end tag.
func (vc *VideoCore) Frames() [][]uint32 {
	vc.mtx.Lock()
	defer vc.mtx.Unlock()
	return append([][]uint32(nil), vc.frames...)
}

// Pending returns the number of words not yet read through READ.
func (vc *VideoCore) Pending() int {
	vc.mtx.Lock()
	defer vc.mtx.Unlock()
	return len(vc.pending)
}

func (vc *VideoCore) receive(word uint32) {
	vc.mtx.Lock()
	defer vc.mtx.Unlock()

	size := int(vc.msg[0] / 4)
	vc.frames = append(vc.frames, append([]uint32(nil), vc.msg[:min(size, len(vc.msg))]...))

	tag := mailbox.Tag(vc.msg[2])
	values := vc.msg[5 : 5+vc.msg[3]/4]
	resp := vc.values[tag]
	clear(values)
	copy(values, resp)
	vc.msg[4] = 1<<31 | uint32(4*len(resp))

	code, ok := vc.codes[tag]
	if !ok {
		code = 0x8000_0000
	}
	vc.msg[1] = code

	vc.pending = append(vc.pending, vc.foreign...)
	vc.pending = append(vc.pending, word)
	vc.foreign = nil
}

func (vc *VideoCore) status() (uint32, bool) {
	vc.mtx.Lock()
	defer vc.mtx.Unlock()
	if len(vc.pending) == 0 {
		return mailbox.StatusEmpty, true
	}
	return 0, true
}

func (vc *VideoCore) read() (uint32, bool) {
	vc.mtx.Lock()
	defer vc.mtx.Unlock()
	if len(vc.pending) == 0 {
		return 0, true
	}
	w := vc.pending[0]
	vc.pending = vc.pending[1:]
	return w, true
}
