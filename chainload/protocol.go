// Package chainload implements both ends of the serial chainload protocol,
// which loads a program into the memory of a running board and starts it.
//
// The exchange is half duplex and has no checksums, retries or timeouts:
//
//	device -> host  Magic, then three ETX bytes
//	host -> device  payload size, 4 bytes little endian
//	device -> host  Ack
//	host -> device  payload
//
// The device stores the payload at [LoadAddr] and jumps there.
package chainload

import (
	"errors"

	"github.com/clktmr/rpiboot/boot"
	"github.com/sigurn/crc8"
)

const (
	// Magic identifies the protocol and its version.
	Magic = "RBIN64\r\n"

	// ETX is repeated three times to request the payload size.
	ETX         = 0x03
	sizeRequest = "\x03\x03\x03"

	Ack = "OK"

	// LoadAddr is where the payload is stored and started.
	LoadAddr = boot.LoadAddr

	// MaxSize is the largest payload the size field can announce.
	MaxSize = 1<<32 - 1
)

var (
	ErrReturned = errors.New("chainload: launched program returned")
	ErrNoAck    = errors.New("chainload: device did not acknowledge")
	ErrTooLarge = errors.New("chainload: payload too large")
)

// Both ends log this digest so a human can compare them. It is never sent.
var digestTable = crc8.MakeTable(crc8.CRC8)

// Digest returns the CRC-8 of p as logged by both ends.
func Digest(p []byte) uint8 {
	return crc8.Checksum(p, digestTable)
}
