//go:build unix

package run

import (
	"os"
	"syscall"
)

// processGroupKill interrupts the emulator and everything it started. The
// pty made it the leader of its own session and process group.
func processGroupKill(p *os.Process) error {
	return syscall.Kill(-p.Pid, syscall.SIGINT)
}
