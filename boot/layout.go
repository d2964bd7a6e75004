// Package boot takes the boot core from reset to a program's first
// initialization routine. It parks all other cores, moves the stack out of
// the way, relocates the image to its link address if necessary and resolves
// the code addresses captured before the move.
//
// Everything here runs before the runtime is initialized. Nothing may
// allocate or rely on initialized package variables, and calls into the
// hardware are resolved statically through type parameters rather than
// through interface tables, whose absolute addresses are only valid after
// relocation.
package boot

// The addressing scheme shared by all programs. The firmware loads every
// image to LoadAddr and starts all cores there. Core 0's stack grows down
// from StackTop, below any image.
const (
	LoadAddr            uintptr = 0x0008_0000
	StackTop            uintptr = 0x0008_0000
	ChainloaderLinkAddr uintptr = 0x0200_0000
)

// Range is the address range [Start, End).
type Range struct {
	Start, End uintptr
}

func (r Range) Len() uintptr {
	return r.End - r.Start
}

func (r Range) Contains(addr uintptr) bool {
	return addr >= r.Start && addr < r.End
}

// Plan describes a relocation. Image is the extent of code and data as
// linked. The same number of bytes is copied from From into Image.
type Plan struct {
	Image Range
	From  uintptr
}

// Source is the range the words are read from.
func (p Plan) Source() Range {
	return Range{p.From, p.From + p.Image.Len()}
}

// Offset is added to an address in Source to get the matching address in
// Image. It wraps around if the image moves down.
func (p Plan) Offset() uintptr {
	return p.Image.Start - p.From
}

// ForwardSafe reports whether copying from the lowest address upwards never
// overwrites a word before it was read. This holds unless Image starts
// inside Source above From.
func (p Plan) ForwardSafe() bool {
	return p.Image.Start <= p.From || p.Image.Start >= p.Source().End
}

// Layout describes where a program was linked, where it was loaded and
// where core 0's stack lives.
type Layout struct {
	StackTop uintptr
	Image    Range
	Load     uintptr
}

// Relocates reports whether the image must be moved before it can run.
func (l Layout) Relocates() bool {
	return l.Image.Start != l.Load
}

func (l Layout) Plan() Plan {
	return Plan{Image: l.Image, From: l.Load}
}

// Kernel is the layout of a program linked to run where the firmware loads
// it. It is never relocated.
func Kernel(size uintptr) Layout {
	return Layout{
		StackTop: StackTop,
		Image:    Range{LoadAddr, LoadAddr + size},
		Load:     LoadAddr,
	}
}

// Chainloader is the layout of the chainloader, which moves itself to
// ChainloaderLinkAddr to free LoadAddr for the program it receives.
func Chainloader(size uintptr) Layout {
	return Layout{
		StackTop: StackTop,
		Image:    Range{ChainloaderLinkAddr, ChainloaderLinkAddr + size},
		Load:     LoadAddr,
	}
}
