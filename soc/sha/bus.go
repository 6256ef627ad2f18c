package sha

// Register layout for the SHA block, mapped at 0x1000_A000 per spec.md
// §4.9.
const (
	Base = 0x1000A000

	regCnt    = 0x00 // bit0 enable, bit1 final round
	regInFIFO = 0x08
	regHash0  = 0x40 // 8 consecutive digest words
)

// BusView adapts an Engine into a memory-mapped device.
type BusView struct {
	Eng *Engine

	cnt uint32
}

func (v *BusView) Read32(addr uint32) uint32 {
	switch off := addr - Base; {
	case off == regCnt:
		return v.cnt
	case off >= regHash0 && off < regHash0+32:
		return v.Eng.Digest[(off-regHash0)/4]
	default:
		return 0
	}
}

func (v *BusView) Write32(addr uint32, val uint32) {
	switch off := addr - Base; {
	case off == regCnt:
		wasFinal := v.cnt&2 != 0
		v.cnt = val
		if val&2 != 0 && !wasFinal {
			v.Eng.Final()
		}
		if val&1 == 0 {
			v.Eng.Reset()
		}
	case off == regInFIFO:
		v.Eng.WriteInputWord(val)
	}
}

func (v *BusView) Read8(addr uint32) uint8         { return uint8(v.Read32(addr &^ 3)) }
func (v *BusView) Read16(addr uint32) uint16       { return uint16(v.Read32(addr &^ 3)) }
func (v *BusView) Write8(addr uint32, val uint8)   { v.Write32(addr&^3, uint32(val)) }
func (v *BusView) Write16(addr uint32, val uint16) { v.Write32(addr&^3, uint32(val)) }
