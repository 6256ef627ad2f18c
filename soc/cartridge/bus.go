package cartridge

// Register layout for the two ROM-protocol engines, per spec.md §6's exact
// ARM9 address map: CTRCARD at 0x10004000-0x10004FFF, NTRCARD at
// 0x10164000-0x1016400F. Both engines share the same small register shape
// (command, block size, address, FIFO data port), so one BusView type
// serves either with a different backing engine.
const (
	CTRBase = 0x10004000
	NTRBase = 0x10164000

	regAddr      = 0x00
	regBlockSize = 0x04
	regCmd       = 0x08 // write triggers Execute; bit0 of a read reflects the last error
	regData      = 0x0c
)

// card is the narrow shape both NTRCard and CTRCard satisfy.
type card interface {
	SetAddress(addr uint32)
	Execute(cmd byte, blockSize int) error
	ReadFIFO8() byte
}

// BusView adapts a card engine into a memory-mapped device.
type BusView struct {
	Base      uint32
	Card      card
	blockSize uint32
	lastErr   bool
}

func (v *BusView) Read32(addr uint32) uint32 {
	switch addr - v.Base {
	case regCmd:
		if v.lastErr {
			return 1
		}
		return 0
	case regData:
		var w uint32
		for i := 0; i < 4; i++ {
			w |= uint32(v.Card.ReadFIFO8()) << uint(i*8)
		}
		return w
	default:
		return 0
	}
}

func (v *BusView) Write32(addr uint32, val uint32) {
	switch addr - v.Base {
	case regAddr:
		v.Card.SetAddress(val)
	case regBlockSize:
		v.blockSize = val
	case regCmd:
		err := v.Card.Execute(byte(val), int(v.blockSize))
		v.lastErr = err != nil
	}
}

func (v *BusView) Read8(addr uint32) uint8 {
	if addr-v.Base == regData {
		return v.Card.ReadFIFO8()
	}
	return uint8(v.Read32(addr &^ 3))
}
func (v *BusView) Read16(addr uint32) uint16       { return uint16(v.Read32(addr &^ 3)) }
func (v *BusView) Write8(addr uint32, val uint8)   { v.Write32(addr&^3, uint32(val)) }
func (v *BusView) Write16(addr uint32, val uint16) { v.Write32(addr&^3, uint32(val)) }

// SPICARD is its own fixed-address register window, per spec.md §6
// (0x1000D800-0x1000D8FF), separate from the generic 3-bus SPI controller
// (component L, soc/spi) since the save chip is wired directly rather than
// through the CODEC/touchscreen SPI bus.
const (
	SPICARDBase = 0x1000D800

	spiRegCS   = 0x00 // bit0: chip-select level
	spiRegData = 0x04 // write: clock one byte out; read: last byte clocked in
)

// SPICardView adapts a SPICard into this fixed register window.
type SPICardView struct {
	Card     *SPICard
	selected bool
	lastByte byte
}

func (v *SPICardView) Read32(addr uint32) uint32 {
	switch addr - SPICARDBase {
	case spiRegCS:
		if v.selected {
			return 1
		}
		return 0
	case spiRegData:
		return uint32(v.lastByte)
	default:
		return 0
	}
}

func (v *SPICardView) Write32(addr uint32, val uint32) {
	switch addr - SPICARDBase {
	case spiRegCS:
		if val&1 != 0 && !v.selected {
			v.Card.Select()
		} else if val&1 == 0 && v.selected {
			v.Card.Deselect()
		}
		v.selected = val&1 != 0
	case spiRegData:
		b, _ := v.Card.Clock(byte(val))
		v.lastByte = b
	}
}

func (v *SPICardView) Read8(addr uint32) uint8         { return uint8(v.Read32(addr &^ 3)) }
func (v *SPICardView) Read16(addr uint32) uint16       { return uint16(v.Read32(addr &^ 3)) }
func (v *SPICardView) Write8(addr uint32, val uint8)   { v.Write32(addr&^3, uint32(val)) }
func (v *SPICardView) Write16(addr uint32, val uint16) { v.Write32(addr&^3, uint32(val)) }
