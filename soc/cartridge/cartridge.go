// Package cartridge implements the three cartridge-facing engines of
// SPEC_FULL §3/§4.11: NTRCARD (legacy DS ROM protocol), CTRCARD (3DS ROM
// protocol) and SPICARD (serial save-chip protocol), each a small command
// state machine fronting a flat backing image.
//
// Grounded on the teacher's soc/imx6/usdhc command dispatch shape (a
// fixed command table driving register-level state, soc/imx6/usdhc/cmd.go)
// generalized here to cartridge-bus commands; there is no card protocol
// analogue in the pack closer than eMMC/SD, so the state machines
// themselves are built directly from spec.md §4.11's command tables.
package cartridge

import "errors"

// NTRCommand is a legacy DS cartridge command byte.
const (
	NTRCmdDummy    = 0x9F // returns 0xFF-filled block
	NTRCmdChipID   = 0x90
	NTRCmdActivate = 0xA0 // enters KEY2-secure area mode (modeled as a no-op gate)
	NTRCmdReadROM  = 0x3E // block read at the address latched by SetAddress
	NTRCmdGetData  = 0x71
)

// CTRCommand is a 3DS cartridge command byte.
const (
	CTRCmdReadHeader = 0x82
	CTRCmdChipID     = 0xBF
	CTRCmdReadData   = 0xA2
	CTRCmdSeed       = 0xA3
	CTRCmdSecureLo   = 0xC5
	CTRCmdSecureHi   = 0xC6
)

// NTRCard models the legacy DS ROM protocol.
type NTRCard struct {
	Image  []byte
	ChipID uint32

	addr uint32
	fifo []byte
}

func NewNTRCard(image []byte, chipID uint32) *NTRCard {
	return &NTRCard{Image: image, ChipID: chipID}
}

// SetAddress latches the ROM byte offset the next block read starts from.
func (c *NTRCard) SetAddress(addr uint32) { c.addr = addr }

// Execute runs command against the card, per spec.md §4.11's NTR table.
func (c *NTRCard) Execute(cmd byte, blockSize int) error {
	switch cmd {
	case NTRCmdDummy:
		c.fifo = make([]byte, blockSize)
		for i := range c.fifo {
			c.fifo[i] = 0xFF
		}
	case NTRCmdChipID:
		c.fifo = []byte{
			byte(c.ChipID), byte(c.ChipID >> 8), byte(c.ChipID >> 16), byte(c.ChipID >> 24),
		}
	case NTRCmdActivate:
		c.fifo = nil // secure-mode gate: no readable data, just a state transition
	case NTRCmdReadROM, NTRCmdGetData:
		if int(c.addr)+blockSize > len(c.Image) {
			return errors.New("cartridge: NTR read past end of image")
		}
		c.fifo = append([]byte(nil), c.Image[c.addr:int(c.addr)+blockSize]...)
	default:
		return errors.New("cartridge: unsupported NTR command")
	}
	return nil
}

// ReadFIFO8 drains the response FIFO a byte at a time.
func (c *NTRCard) ReadFIFO8() byte {
	if len(c.fifo) == 0 {
		return 0xFF
	}
	b := c.fifo[0]
	c.fifo = c.fifo[1:]
	return b
}

// CTRCard models the 3DS cartridge ROM protocol.
type CTRCard struct {
	Image  []byte
	ChipID uint32

	addr uint32
	fifo []byte
}

func NewCTRCard(image []byte, chipID uint32) *CTRCard {
	return &CTRCard{Image: image, ChipID: chipID}
}

func (c *CTRCard) SetAddress(addr uint32) { c.addr = addr }

func (c *CTRCard) Execute(cmd byte, blockSize int) error {
	switch cmd {
	case CTRCmdChipID:
		c.fifo = []byte{
			byte(c.ChipID), byte(c.ChipID >> 8), byte(c.ChipID >> 16), byte(c.ChipID >> 24),
		}
	case CTRCmdReadHeader:
		if blockSize > len(c.Image) {
			return errors.New("cartridge: CTR header read past end of image")
		}
		c.fifo = append([]byte(nil), c.Image[:blockSize]...)
	case CTRCmdReadData:
		if int(c.addr)+blockSize > len(c.Image) {
			return errors.New("cartridge: CTR read past end of image")
		}
		c.fifo = append([]byte(nil), c.Image[c.addr:int(c.addr)+blockSize]...)
	case CTRCmdSeed, CTRCmdSecureLo, CTRCmdSecureHi:
		c.fifo = nil // secure-area handshake: state transition only, per spec.md §4.11
	default:
		return errors.New("cartridge: unsupported CTR command")
	}
	return nil
}

func (c *CTRCard) ReadFIFO8() byte {
	if len(c.fifo) == 0 {
		return 0xFF
	}
	b := c.fifo[0]
	c.fifo = c.fifo[1:]
	return b
}
