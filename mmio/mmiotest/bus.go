// Package mmiotest provides a register bus double for driver tests.
package mmiotest

import (
	"sync"

	"github.com/clktmr/rpiboot/mmio"
)

// Op is one recorded bus operation.
type Op struct {
	Barrier bool
	Addr    mmio.Addr
	Value   uint32
}

// Bus is an [mmio.Bus] backed by a map of register values. Loads return
// queued values first, then the last stored or preset value. Every Store and
// Barrier is recorded in order.
type Bus struct {
	mtx    sync.Mutex
	regs   map[mmio.Addr]uint32
	queued map[mmio.Addr][]uint32
	hooks  map[mmio.Addr]func(v uint32)
	loads  map[mmio.Addr]func() (uint32, bool)
	ops    []Op
}

func New() *Bus {
	return &Bus{
		regs:   make(map[mmio.Addr]uint32),
		queued: make(map[mmio.Addr][]uint32),
		hooks:  make(map[mmio.Addr]func(uint32)),
		loads:  make(map[mmio.Addr]func() (uint32, bool)),
	}
}

func (b *Bus) Load(r mmio.Addr) uint32 {
	b.mtx.Lock()
	fn := b.loads[r]
	b.mtx.Unlock()
	if fn != nil {
		if v, ok := fn(); ok {
			return v
		}
	}

	b.mtx.Lock()
	defer b.mtx.Unlock()
	if q := b.queued[r]; len(q) > 0 {
		b.queued[r] = q[1:]
		return q[0]
	}
	return b.regs[r]
}

func (b *Bus) Store(r mmio.Addr, v uint32) {
	b.mtx.Lock()
	b.regs[r] = v
	b.ops = append(b.ops, Op{Addr: r, Value: v})
	fn := b.hooks[r]
	b.mtx.Unlock()

	if fn != nil {
		fn(v)
	}
}

func (b *Bus) Barrier() {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.ops = append(b.ops, Op{Barrier: true})
}

// Set presets the value returned by loads of r without recording a store.
func (b *Bus) Set(r mmio.Addr, v uint32) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.regs[r] = v
}

// Queue appends canned values returned by the next loads of r.
func (b *Bus) Queue(r mmio.Addr, v ...uint32) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.queued[r] = append(b.queued[r], v...)
}

// OnStore registers fn to be called after every store to r.
func (b *Bus) OnStore(r mmio.Addr, fn func(v uint32)) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.hooks[r] = fn
}

// OnLoad registers fn to compute loads of r. If fn returns false, the load
// falls back to queued and stored values.
func (b *Bus) OnLoad(r mmio.Addr, fn func() (uint32, bool)) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.loads[r] = fn
}

// Ops returns a copy of all recorded operations.
func (b *Bus) Ops() []Op {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return append([]Op(nil), b.ops...)
}

// Stores returns the values stored to r, oldest first.
func (b *Bus) Stores(r mmio.Addr) (v []uint32) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	for _, op := range b.ops {
		if !op.Barrier && op.Addr == r {
			v = append(v, op.Value)
		}
	}
	return
}

// Reset forgets all recorded operations.
func (b *Bus) Reset() {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.ops = b.ops[:0]
}
