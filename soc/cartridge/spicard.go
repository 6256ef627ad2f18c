package cartridge

import "errors"

// SPIState is a SPICARD save-chip protocol state (spec.md §4.11).
type SPIState int

const (
	SPIIdle SPIState = iota
	SPISelected
	SPINeedsParams
	SPIWriteReady
	SPIProgramReady
)

// SPI save-chip opcodes, modeled after the common EEPROM/Flash command
// set 3DS save chips use.
const (
	SPICmdWriteEnable  = 0x06
	SPICmdWriteDisable = 0x04
	SPICmdReadStatus   = 0x05
	SPICmdWrite        = 0x02
	SPICmdRead         = 0x03
	SPICmdProgramPage  = 0x0A
)

const SPICardSize = 8 << 20 // 8 MiB

// SPICard models the serial save-chip protocol: select, latch a command
// and any address parameter bytes, then stream data.
type SPICard struct {
	Image []byte // len == SPICardSize

	state      SPIState
	writeLatch bool
	cmd        byte
	addr       uint32
	paramBytes int
}

// NewSPICard returns a card backed by a copy of image, zero-extended or
// truncated to SPICardSize.
func NewSPICard(image []byte) *SPICard {
	buf := make([]byte, SPICardSize)
	copy(buf, image)
	return &SPICard{Image: buf, state: SPIIdle}
}

// Select asserts chip-select, per SPI convention resetting the in-flight
// command.
func (c *SPICard) Select() {
	c.state = SPISelected
	c.paramBytes = 0
}

// Deselect releases chip-select.
func (c *SPICard) Deselect() {
	c.state = SPIIdle
}

// Clock shifts one byte in (from the host) and returns one byte out (to
// the host), per full-duplex SPI semantics.
func (c *SPICard) Clock(in byte) (out byte, err error) {
	switch c.state {
	case SPIIdle:
		return 0xFF, errors.New("cartridge: SPI clock while deselected")

	case SPISelected:
		c.cmd = in
		switch in {
		case SPICmdWriteEnable:
			c.writeLatch = true
			c.state = SPIIdle
		case SPICmdWriteDisable:
			c.writeLatch = false
			c.state = SPIIdle
		case SPICmdReadStatus:
			c.state = SPIIdle
			status := byte(0)
			if c.writeLatch {
				status |= 1 << 1
			}
			return status, nil
		case SPICmdRead, SPICmdWrite, SPICmdProgramPage:
			c.state = SPINeedsParams
			c.paramBytes = 3 // 24-bit address, common for >64KiB save chips
			c.addr = 0
		default:
			c.state = SPIIdle
			return 0xFF, errors.New("cartridge: unsupported SPI command")
		}
		return 0xFF, nil

	case SPINeedsParams:
		c.addr = c.addr<<8 | uint32(in)
		c.paramBytes--
		if c.paramBytes == 0 {
			switch c.cmd {
			case SPICmdRead:
				c.state = SPIWriteReady // "ready to shift read data out"
			case SPICmdWrite, SPICmdProgramPage:
				if !c.writeLatch {
					c.state = SPIIdle
					return 0xFF, errors.New("cartridge: write without write-enable")
				}
				c.state = SPIProgramReady
			}
		}
		return 0xFF, nil

	case SPIWriteReady:
		if int(c.addr) >= len(c.Image) {
			return 0xFF, errors.New("cartridge: SPI read past end of image")
		}
		out = c.Image[c.addr]
		c.addr++
		return out, nil

	case SPIProgramReady:
		if int(c.addr) >= len(c.Image) {
			return 0xFF, errors.New("cartridge: SPI write past end of image")
		}
		c.Image[c.addr] = in
		c.addr++
		return 0xFF, nil
	}

	return 0xFF, errors.New("cartridge: unreachable SPI state")
}
