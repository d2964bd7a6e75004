//go:build !unix

package run

import (
	"os"
)

func processGroupKill(p *os.Process) error {
	return p.Kill()
}
