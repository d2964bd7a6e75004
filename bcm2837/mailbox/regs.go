package mailbox

import "github.com/clktmr/rpiboot/bcm2837"

const baseAddr = bcm2837.PeripheralBase + bcm2837.MailboxOffset

// Registers of mailbox 0. Only READ, STATUS and WRITE are used.
const (
	RegRead   = baseAddr + 0x00
	RegPeek   = baseAddr + 0x10
	RegSender = baseAddr + 0x14
	RegStatus = baseAddr + 0x18
	RegConfig = baseAddr + 0x1c
	RegWrite  = baseAddr + 0x20
)

// Bits of the STATUS register.
const (
	StatusFull  uint32 = 1 << 31
	StatusEmpty uint32 = 1 << 30
)

// Channel selects one of the mailbox queues. It is carried in the low four
// bits of every word exchanged through the mailbox.
type Channel uint8

const (
	ChannelPower Channel = iota
	ChannelFramebuffer
	ChannelVirtualUART
	ChannelVCHIQ
	ChannelLEDs
	ChannelButtons
	ChannelTouchScreen
	ChannelCount
	ChannelArmToVC // property tags, ARM to VideoCore
	ChannelVCToArm
)

const channelMask = 0xf

// pack combines a 16 byte aligned buffer address with a channel.
func pack(addr uint32, ch Channel) uint32 {
	return addr&^channelMask | uint32(ch)&channelMask
}
