package pxi

// Register layout, one block per core's point of view: 0x10008000 in the
// ARM9 map, 0x10163000 in the ARM11 map (spec.md §6) — two distinct
// absolute addresses for the same relative register shape, so BusView
// carries its own Base rather than assuming a single package constant.
const (
	ARM9Base  = 0x10008000
	ARM11Base = 0x10163000

	regSync = 0x00
	regCnt  = 0x04 // read: bit0 send-empty, bit1 send-full, bit2 send error, bit8 recv-empty, bit9 recv-full, bit10 recv error; write: bit2 recv-not-empty IRQ enable, bit3 acks both errors
	regSend = 0x08
	regRecv = 0x0c
)

// BusView adapts an Engine into a memory-mapped device from one core's
// point of view.
type BusView struct {
	Eng      *Engine
	FromARM9 bool
	Base     uint32
}

func (v *BusView) Read32(addr uint32) uint32 {
	switch addr - v.Base {
	case regSync:
		if v.FromARM9 {
			return uint32(v.Eng.Sync9) | uint32(v.Eng.Sync11)<<8
		}
		return uint32(v.Eng.Sync11) | uint32(v.Eng.Sync9)<<8
	case regCnt:
		return statusWord(v.Eng.StatusFor(v.FromARM9))
	case regRecv:
		if v.FromARM9 {
			return v.Eng.RecvFromARM11()
		}
		return v.Eng.RecvFromARM9()
	default:
		return 0
	}
}

func statusWord(s Status) uint32 {
	var w uint32
	if s.SendEmpty {
		w |= 1 << 0
	}
	if s.SendFull {
		w |= 1 << 1
	}
	if s.RecvEmpty {
		w |= 1 << 8
	}
	if s.RecvFull {
		w |= 1 << 9
	}
	if s.ErrorSend {
		w |= 1 << 2
	}
	if s.ErrorRecv {
		w |= 1 << 10
	}
	return w
}

func (v *BusView) Write32(addr uint32, val uint32) {
	switch addr - v.Base {
	case regSync:
		v.Eng.WriteSync(v.FromARM9, uint8(val))
	case regCnt:
		v.Eng.EnableRecvIRQ(v.FromARM9, val&(1<<2) != 0)
		if val&(1<<3) != 0 {
			v.Eng.AckErrors(v.FromARM9)
		}
	case regSend:
		if v.FromARM9 {
			v.Eng.SendToARM11(val)
		} else {
			v.Eng.SendToARM9(val)
		}
	}
}

func (v *BusView) Read8(addr uint32) uint8         { return uint8(v.Read32(addr &^ 3)) }
func (v *BusView) Read16(addr uint32) uint16       { return uint16(v.Read32(addr &^ 3)) }
func (v *BusView) Write8(addr uint32, val uint8)   { v.Write32(addr&^3, uint32(val)) }
func (v *BusView) Write16(addr uint32, val uint16) { v.Write32(addr&^3, uint32(val)) }
