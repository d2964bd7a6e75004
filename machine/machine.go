// Package machine implements the terminal states of a core: parking and
// fatal halts. Neither returns.
package machine

import "io"

// Waiter lets a core sleep until an event arrives.
type Waiter interface {
	WaitForEvent()
}

// Park puts the core into a low-power wait forever. Events only wake it for
// another iteration of the loop.
func Park[W Waiter](w W) {
	for {
		w.WaitForEvent()
	}
}

// Fatal writes msg to out and parks the core. out may be nil if no
// diagnostic output is available yet.
func Fatal[W Waiter](out io.Writer, w W, msg string) {
	if out != nil {
		io.WriteString(out, "fatal: ")
		io.WriteString(out, msg)
		io.WriteString(out, "\n")
	}
	Park(w)
}

// FatalAt is like Fatal but also reports an address.
func FatalAt[W Waiter](out io.Writer, w W, msg string, addr uint64) {
	if out != nil {
		var buf [16]byte
		io.WriteString(out, "fatal: ")
		io.WriteString(out, msg)
		io.WriteString(out, " at 0x")
		out.Write(Hex(buf[:], addr))
		io.WriteString(out, "\n")
	}
	Park(w)
}

// Hex formats num as 16 lower case hex digits into buf, which must hold at
// least 16 bytes. It is usable before the heap is set up.
func Hex(buf []byte, num uint64) []byte {
	for i := range 16 {
		char := byte(num>>(60-(4*i))) & 0xf
		if char > 9 {
			char += 'a' - 10
		} else {
			char += '0'
		}
		buf[i] = char
	}
	return buf[:16]
}
