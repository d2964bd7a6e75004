package console_test

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/clktmr/rpiboot/console"
)

// slowWriter writes byte by byte, so unserialized writers would interleave.
type slowWriter struct {
	buf bytes.Buffer
}

func (w *slowWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		w.buf.WriteByte(b)
	}
	return len(p), nil
}

func TestWriterSerializes(t *testing.T) {
	out := &slowWriter{}
	w := console.NewWriter(out)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				fmt.Fprintf(w, "writer %d line %02d\n", i, j)
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(out.buf.String(), "\n"), "\n")
	if len(lines) != 8*50 {
		t.Fatalf("got %d lines", len(lines))
	}
	for _, l := range lines {
		var i, j int
		if n, err := fmt.Sscanf(l, "writer %d line %d", &i, &j); n != 2 || err != nil {
			t.Fatalf("interleaved line %q", l)
		}
	}
}

func TestWriterUninitialized(t *testing.T) {
	w := console.NewWriter(nil)
	if n, err := w.Write([]byte("lost")); n != 4 || err != nil {
		t.Errorf("got %d, %v", n, err)
	}
}

func TestLogger(t *testing.T) {
	var out bytes.Buffer
	console.Init(&out)

	log := console.Logger()
	log.Info().Str("mac", "b827eb000001").Msg("board")

	got := out.String()
	if !strings.Contains(got, "board") || !strings.Contains(got, "mac=b827eb000001") {
		t.Errorf("got %q", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Errorf("line not terminated: %q", got)
	}
}
