//go:build !linux

package send

import (
	"fmt"
	"os"
	"runtime"
)

func setBaud(f *os.File, baud int) error {
	return fmt.Errorf("setting the baud rate is not supported on %s", runtime.GOOS)
}
