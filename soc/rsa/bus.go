package rsa

import "math/big"

// Register layout for the RSA block, mapped at 0x1000_B000 per spec.md
// §4.10. IRQ 22 fires on operation completion.
const (
	Base = 0x1000B000

	regCnt      = 0x00 // bit0 start, [3:2] slot select
	regInFIFO   = 0x08
	regOutFIFO  = 0x0c
	regModulus  = 0x40 // 64 consecutive words, MSB word first
	regExponent = 0x140
)

const modulusWords = 64 // 2048 bits

// BusView adapts an Engine into a memory-mapped device.
type BusView struct {
	Eng *Engine

	modBuf [modulusWords]uint32
	expBuf [modulusWords]uint32
}

func wordsToBig(words [modulusWords]uint32) *big.Int {
	buf := make([]byte, modulusWords*4)
	for i, w := range words {
		buf[i*4] = byte(w >> 24)
		buf[i*4+1] = byte(w >> 16)
		buf[i*4+2] = byte(w >> 8)
		buf[i*4+3] = byte(w)
	}
	return new(big.Int).SetBytes(buf)
}

func (v *BusView) Read32(addr uint32) uint32 {
	switch off := addr - Base; {
	case off == regOutFIFO:
		return v.Eng.ReadOutputWord()
	default:
		return 0
	}
}

func (v *BusView) Write32(addr uint32, val uint32) {
	switch off := addr - Base; {
	case off == regCnt:
		slot := int((val >> 2) & 0x3)
		v.Eng.CurrentSlot = slot
		if val&1 != 0 {
			v.Eng.Slots[slot].Modulus = wordsToBig(v.modBuf)
			v.Eng.Slots[slot].Exponent = wordsToBig(v.expBuf)
			v.Eng.Start()
		}

	case off == regInFIFO:
		v.Eng.LoadInput(val)

	case off >= regModulus && off < regModulus+modulusWords*4:
		v.modBuf[(off-regModulus)/4] = val

	case off >= regExponent && off < regExponent+modulusWords*4:
		v.expBuf[(off-regExponent)/4] = val
	}
}

func (v *BusView) Read8(addr uint32) uint8         { return uint8(v.Read32(addr &^ 3)) }
func (v *BusView) Read16(addr uint32) uint16       { return uint16(v.Read32(addr &^ 3)) }
func (v *BusView) Write8(addr uint32, val uint8)   { v.Write32(addr&^3, uint32(val)) }
func (v *BusView) Write16(addr uint32, val uint16) { v.Write32(addr&^3, uint32(val)) }
