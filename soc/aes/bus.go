package aes

// Register layout for the AES block, mapped at 0x1000_9000 per spec.md
// §4.8. Key material streams through regKeyFIFO, 4 bytes at a time, into
// whichever (slot, field) regKeySel last selected.
const (
	Base = 0x10009000

	regCnt    = 0x00 // mode/control bits; decoded directly into Eng.Mode by the caller
	regBlkCnt = 0x04 // read: number of complete 16-byte blocks waiting in the output FIFO
	regWrFIFO = 0x08
	regRdFIFO = 0x0c
	regKeySel = 0x10 // [5:0] slot, [7:6] field: 0=normal 1=X 2=Y, [8] generator: 0=3DS 1=DSi
	regKeyFIFO = 0x14
	regIV      = 0x20 // 4 consecutive words, IV[0..3]
)

const (
	keyFieldNormal = 0
	keyFieldX      = 1
	keyFieldY      = 2
)

// BusView adapts an Engine into a memory-mapped device.
type BusView struct {
	Eng *Engine

	keySel    int
	keyField  int
	keyWord   int // next word offset regKeyFIFO writes into, 0..3
	ivWord    int // next word offset regIV writes into, 0..3
}

func (v *BusView) Read32(addr uint32) uint32 {
	switch addr - Base {
	case regRdFIFO:
		return v.Eng.ReadOutputWord()
	case regBlkCnt:
		return uint32(len(v.Eng.outFIFO) / 16)
	default:
		return 0
	}
}

func (v *BusView) Write32(addr uint32, val uint32) {
	switch off := addr - Base; {
	case off == regWrFIFO:
		v.Eng.WriteInputWord(val)

	case off == regKeySel:
		v.keySel = int(val & 0x3f)
		v.keyField = int((val >> 6) & 0x3)
		v.keyWord = 0
		v.Eng.CurrentSlot = v.keySel
		v.Eng.Generator = Generator((val >> 8) & 1)

	case off == regKeyFIFO:
		slot := &v.Eng.Slots[v.keySel]
		switch v.keyField {
		case keyFieldX:
			setWord(&slot.KeyX, v.keyWord, val)
		case keyFieldY:
			setWord(&slot.KeyY, v.keyWord, val)
		default:
			setWord(&slot.KeyNormal, v.keyWord, val)
		}
		v.keyWord = (v.keyWord + 1) % 4

		// spec.md §4.8: writing the fourth word of either X or Y
		// (whichever the 3DS/DSi path reads last) triggers keygen.
		if v.keyWord == 0 && v.keyField != keyFieldNormal {
			slot.GenerateNormalKey(v.Eng.Generator)
		}

	case off >= regIV && off < regIV+16:
		setWord(&v.Eng.IV, int(off-regIV)/4, val)

	case off == regCnt:
		// mode/enable bits are set directly on Eng.Mode by the owning
		// system package rather than decoded bit-by-bit here.
	}
}

func setWord(dst *[16]byte, word int, val uint32) {
	if word < 0 || word > 3 {
		return
	}
	off := word * 4
	dst[off] = byte(val)
	dst[off+1] = byte(val >> 8)
	dst[off+2] = byte(val >> 16)
	dst[off+3] = byte(val >> 24)
}

func (v *BusView) Read8(addr uint32) uint8         { return uint8(v.Read32(addr &^ 3)) }
func (v *BusView) Read16(addr uint32) uint16       { return uint16(v.Read32(addr &^ 3)) }
func (v *BusView) Write8(addr uint32, val uint8)   { v.Write32(addr&^3, uint32(val)) }
func (v *BusView) Write16(addr uint32, val uint16) { v.Write32(addr&^3, uint32(val)) }
