package mailbox

// Region is a range of physical memory.
type Region struct {
	Base uint32
	Size uint32
}

// PowerState is the state word of a power domain.
type PowerState uint32

const (
	PowerOn      PowerState = 1 << 0
	PowerMissing PowerState = 1 << 1 // response only
	PowerWait    PowerState = 1 << 1 // request only
)

// ClockState is the state word of a clock.
type ClockState uint32

const (
	ClockOn      ClockState = 1 << 0
	ClockMissing ClockState = 1 << 1
)

func (c *Client) get1(tag Tag, req ...uint32) (uint32, error) {
	var resp [1]uint32
	err := c.Call(tag, req, resp[:])
	return resp[0], err
}

// get2 returns the second response word, which for most tags follows the
// echoed id of the queried device, clock or supply.
func (c *Client) get2(tag Tag, req ...uint32) ([2]uint32, error) {
	var resp [2]uint32
	err := c.Call(tag, req, resp[:])
	return resp, err
}

func (c *Client) FirmwareRevision() (uint32, error) {
	return c.get1(TagFirmwareRevision)
}

func (c *Client) BoardModel() (uint32, error) {
	return c.get1(TagBoardModel)
}

func (c *Client) BoardRevision() (uint32, error) {
	return c.get1(TagBoardRevision)
}

// BoardMAC returns the MAC address of the on-board ethernet in the low 48
// bits.
func (c *Client) BoardMAC() (uint64, error) {
	r, err := c.get2(TagBoardMAC)
	return uint64(r[1])<<32 | uint64(r[0]), err
}

func (c *Client) BoardSerial() (uint64, error) {
	r, err := c.get2(TagBoardSerial)
	return uint64(r[1])<<32 | uint64(r[0]), err
}

// ARMMemory returns the memory assigned to the ARM cores.
func (c *Client) ARMMemory() (Region, error) {
	r, err := c.get2(TagARMMemory)
	return Region{Base: r[0], Size: r[1]}, err
}

// VCMemory returns the memory assigned to the VideoCore.
func (c *Client) VCMemory() (Region, error) {
	r, err := c.get2(TagVCMemory)
	return Region{Base: r[0], Size: r[1]}, err
}

// DMAChannels returns the mask of DMA channels usable by the ARM.
func (c *Client) DMAChannels() (uint32, error) {
	return c.get1(TagDMAChannels)
}

func (c *Client) PowerState(d Device) (PowerState, error) {
	r, err := c.get2(TagPowerState, uint32(d))
	return PowerState(r[1]), err
}

// Timing returns the time in microseconds a device takes to power up.
func (c *Client) Timing(d Device) (uint32, error) {
	r, err := c.get2(TagTiming, uint32(d))
	return r[1], err
}

func (c *Client) SetPowerState(d Device, state PowerState) (PowerState, error) {
	r, err := c.get2(TagSetPowerState, uint32(d), uint32(state))
	return PowerState(r[1]), err
}

func (c *Client) ClockState(clk Clock) (ClockState, error) {
	r, err := c.get2(TagClockState, uint32(clk))
	return ClockState(r[1]), err
}

func (c *Client) SetClockState(clk Clock, state ClockState) (ClockState, error) {
	r, err := c.get2(TagSetClockState, uint32(clk), uint32(state))
	return ClockState(r[1]), err
}

// ClockRate returns the rate of clk in Hz.
func (c *Client) ClockRate(clk Clock) (uint32, error) {
	r, err := c.get2(TagClockRate, uint32(clk))
	return r[1], err
}

func (c *Client) MaxClockRate(clk Clock) (uint32, error) {
	r, err := c.get2(TagMaxClockRate, uint32(clk))
	return r[1], err
}

func (c *Client) MinClockRate(clk Clock) (uint32, error) {
	r, err := c.get2(TagMinClockRate, uint32(clk))
	return r[1], err
}

// SetClockRate sets clk to hz and returns the rate actually applied. Unless
// skipTurbo is set, the firmware may raise other clocks along with the ARM
// clock.
func (c *Client) SetClockRate(clk Clock, hz uint32, skipTurbo bool) (uint32, error) {
	var skip uint32
	if skipTurbo {
		skip = 1
	}
	r, err := c.get2(TagSetClockRate, uint32(clk), hz, skip)
	return r[1], err
}

func (c *Client) Turbo() (bool, error) {
	r, err := c.get2(TagTurbo, 0)
	return r[1] != 0, err
}

func (c *Client) SetTurbo(on bool) (bool, error) {
	var level uint32
	if on {
		level = 1
	}
	r, err := c.get2(TagSetTurbo, 0, level)
	return r[1] != 0, err
}

// Voltage returns the voltage of v as an offset from 1.2V in steps of 25mV.
func (c *Client) Voltage(v Voltage) (int32, error) {
	r, err := c.get2(TagVoltage, uint32(v))
	return int32(r[1]), err
}

func (c *Client) MaxVoltage(v Voltage) (int32, error) {
	r, err := c.get2(TagMaxVoltage, uint32(v))
	return int32(r[1]), err
}

func (c *Client) MinVoltage(v Voltage) (int32, error) {
	r, err := c.get2(TagMinVoltage, uint32(v))
	return int32(r[1]), err
}

func (c *Client) SetVoltage(v Voltage, value int32) (int32, error) {
	r, err := c.get2(TagSetVoltage, uint32(v), uint32(value))
	return int32(r[1]), err
}

// Temperature returns the SoC temperature in thousandths of a degree
// Celsius.
func (c *Client) Temperature() (uint32, error) {
	r, err := c.get2(TagTemperature, 0)
	return r[1], err
}

func (c *Client) MaxTemperature() (uint32, error) {
	r, err := c.get2(TagMaxTemperature, 0)
	return r[1], err
}
