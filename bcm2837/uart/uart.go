// Package uart drives the two serial ports of the BCM2837. Both poll their
// status registers; there is no interrupt or DMA support.
//
// GPIO 14 and 15 are shared, so only one of the ports can be connected to
// the header at a time. The last one initialized wins.
package uart

import (
	"errors"
	"io"

	"github.com/clktmr/rpiboot/bcm2837/gpio"
	"github.com/clktmr/rpiboot/bcm2837/mailbox"
)

const (
	pinTXD gpio.Pin = 14
	pinRXD gpio.Pin = 15
)

var ErrClock = errors.New("uart: clock not set")

// ClockSetter sets the rate of a clock owned by the VideoCore. It is
// implemented by [mailbox.Client].
type ClockSetter interface {
	SetClockRate(clk mailbox.Clock, hz uint32, skipTurbo bool) (uint32, error)
}

type byteWriter interface {
	WriteByte(c byte) error
}

// writeCRLF writes p to w, expanding every '\n' to "\r\n".
func writeCRLF(w byteWriter, p []byte) (int, error) {
	for i, c := range p {
		if c == '\n' {
			if err := w.WriteByte('\r'); err != nil {
				return i, err
			}
		}
		if err := w.WriteByte(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

var (
	_ io.ByteReader = (*PL011)(nil)
	_ io.ByteWriter = (*PL011)(nil)
	_ io.Writer     = (*PL011)(nil)
	_ io.ByteReader = (*Mini)(nil)
	_ io.ByteWriter = (*Mini)(nil)
	_ io.Writer     = (*Mini)(nil)
)
