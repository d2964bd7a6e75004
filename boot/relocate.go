package boot

import (
	"github.com/clktmr/rpiboot/cpu"
	"github.com/clktmr/rpiboot/debug"
	"github.com/clktmr/rpiboot/physmem"
)

// Relocate copies p.Image.Len() bytes word by word from p.From into
// p.Image, lowest address first. If the ranges overlap, the caller must
// ensure p.ForwardSafe().
func Relocate[M physmem.Words](mem M, p Plan) {
	debug.Assert(cpu.IsAligned(p.Image.Len(), cpu.WordSize), "boot: image size not word aligned")

	dst, src := p.Image.Start, p.From
	for range p.Image.Len() / cpu.WordSize {
		mem.StoreWord(dst, mem.LoadWord(src))
		dst += cpu.WordSize
		src += cpu.WordSize
	}
}
