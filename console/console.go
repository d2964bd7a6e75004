// Package console is the diagnostics sink of the firmware. All output goes
// through one lock, so lines from different writers never interleave.
//
// Init must be called once before the first write, usually right after the
// console UART is set up. The console lives as long as the firmware; there
// is no way to close it.
package console

import (
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// Writer serializes writes to an underlying writer.
type Writer struct {
	mtx sync.Mutex
	w   io.Writer
}

// NewWriter returns a Writer for w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write writes p in one piece. Writes before an underlying writer is set are
// discarded.
func (c *Writer) Write(p []byte) (int, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.w == nil {
		return len(p), nil
	}
	return c.w.Write(p)
}

func (c *Writer) set(w io.Writer) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.w = w
}

var std Writer

// Init directs the console to w.
func Init(w io.Writer) {
	std.set(w)
}

// Default returns the console.
func Default() *Writer {
	return &std
}

// Logger returns a human readable logger on the console.
func Logger() zerolog.Logger {
	return NewLogger(&std)
}

// NewLogger returns a logger writing plain text lines without timestamps to
// w. The firmware has no wall clock.
func NewLogger(w io.Writer) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:          w,
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}
	return zerolog.New(out)
}
