package mailbox

import "strconv"

// Tag identifies a property of the VideoCore firmware.
type Tag uint32

// TagEnd terminates the tag list of a message.
const TagEnd Tag = 0

const (
	TagFirmwareRevision Tag = 0x0000_0001

	TagBoardModel    Tag = 0x0001_0001
	TagBoardRevision Tag = 0x0001_0002
	TagBoardMAC      Tag = 0x0001_0003
	TagBoardSerial   Tag = 0x0001_0004
	TagARMMemory     Tag = 0x0001_0005
	TagVCMemory      Tag = 0x0001_0006
	TagDMAChannels   Tag = 0x0006_0001

	TagPowerState    Tag = 0x0002_0001
	TagTiming        Tag = 0x0002_0002
	TagSetPowerState Tag = 0x0002_8001

	TagClockState    Tag = 0x0003_0001
	TagSetClockState Tag = 0x0003_8001
	TagClockRate     Tag = 0x0003_0002
	TagMaxClockRate  Tag = 0x0003_0004
	TagMinClockRate  Tag = 0x0003_0007
	TagSetClockRate  Tag = 0x0003_8002
	TagTurbo         Tag = 0x0003_0009
	TagSetTurbo      Tag = 0x0003_8009

	TagVoltage        Tag = 0x0003_0003
	TagMaxVoltage     Tag = 0x0003_0005
	TagMinVoltage     Tag = 0x0003_0008
	TagSetVoltage     Tag = 0x0003_8003
	TagTemperature    Tag = 0x0003_0006
	TagMaxTemperature Tag = 0x0003_000a
)

// Property describes the shape of a tag: the number of value words sent with
// the request and returned with the response.
type Property struct {
	Tag      Tag
	Name     string
	Request  int
	Response int
}

// catalog is the only place that knows the shape of a tag.
var catalog = [...]Property{
	{TagFirmwareRevision, "FirmwareRevision", 0, 1},
	{TagBoardModel, "BoardModel", 0, 1},
	{TagBoardRevision, "BoardRevision", 0, 1},
	{TagBoardMAC, "BoardMAC", 0, 2},
	{TagBoardSerial, "BoardSerial", 0, 2},
	{TagARMMemory, "ARMMemory", 0, 2},
	{TagVCMemory, "VCMemory", 0, 2},
	{TagDMAChannels, "DMAChannels", 0, 1},
	{TagPowerState, "PowerState", 1, 2},
	{TagTiming, "Timing", 1, 2},
	{TagSetPowerState, "SetPowerState", 2, 2},
	{TagClockState, "ClockState", 1, 2},
	{TagSetClockState, "SetClockState", 2, 2},
	{TagClockRate, "ClockRate", 1, 2},
	{TagMaxClockRate, "MaxClockRate", 1, 2},
	{TagMinClockRate, "MinClockRate", 1, 2},
	{TagSetClockRate, "SetClockRate", 3, 2},
	{TagTurbo, "Turbo", 1, 2},
	{TagSetTurbo, "SetTurbo", 2, 2},
	{TagVoltage, "Voltage", 1, 2},
	{TagMaxVoltage, "MaxVoltage", 1, 2},
	{TagMinVoltage, "MinVoltage", 1, 2},
	{TagSetVoltage, "SetVoltage", 2, 2},
	{TagTemperature, "Temperature", 1, 2},
	{TagMaxTemperature, "MaxTemperature", 1, 2},
}

// Lookup returns the catalog entry of tag.
func Lookup(tag Tag) (Property, bool) {
	for _, p := range catalog {
		if p.Tag == tag {
			return p, true
		}
	}
	return Property{}, false
}

// Properties returns a copy of the catalog.
func Properties() []Property {
	return append([]Property(nil), catalog[:]...)
}

func (t Tag) String() string {
	if p, ok := Lookup(t); ok {
		return p.Name
	}
	return "Tag(0x" + strconv.FormatUint(uint64(t), 16) + ")"
}

// ValueWords is the size of the tag's value buffer in words, which must hold
// both the request and the response.
func (p Property) ValueWords() int {
	return max(p.Request, p.Response)
}

// Argc is the number of words following the tag id: the value buffer size,
// the tag request/response code and the value buffer itself.
func (p Property) Argc() int {
	return 2 + p.ValueWords()
}

// Size is the total message size in bytes: the buffer size, request code and
// tag id, the tag's words and the end tag.
func (p Property) Size() int {
	return 4 * (3 + p.Argc() + 1)
}

// Device identifies a power domain.
type Device uint32

const (
	DeviceSDCard Device = iota
	DeviceUART0
	DeviceUART1
	DeviceUSBHCD
	DeviceI2C0
	DeviceI2C1
	DeviceI2C2
	DeviceSPI
	DeviceCCP2TX
)

// Clock identifies a clock.
type Clock uint32

const (
	ClockEMMC  Clock = 0x1
	ClockUART  Clock = 0x2
	ClockARM   Clock = 0x3
	ClockCore  Clock = 0x4
	ClockV3D   Clock = 0x5
	ClockH264  Clock = 0x6
	ClockISP   Clock = 0x7
	ClockSDRAM Clock = 0x8
	ClockPixel Clock = 0x9
	ClockPWM   Clock = 0xa
	ClockEMMC2 Clock = 0xc
)

// Voltage identifies a supply whose voltage can be queried or set.
type Voltage uint32

const (
	VoltageCore   Voltage = 0x1
	VoltageSDRAMC Voltage = 0x2
	VoltageSDRAMP Voltage = 0x3
	VoltageSDRAMI Voltage = 0x4
)
