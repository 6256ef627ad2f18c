package ndma

// Register layout, 0x10002000-0x10002FFF per spec.md §6; 8 channels, each a
// 0x1C-byte block (SAD/DAD/TCNT/WCNT/CNT), following the real Nintendo DS/
// 3DS NDMA register shape this component models (spec.md §4.5).
const (
	Base = 0x10002000

	chanStride = 0x1c

	regSAD  = 0x00
	regDAD  = 0x04
	regTCNT = 0x08 // total transfer count, words
	regWCNT = 0x0c // block size, words (logical-trigger chunking)
	regCNT  = 0x10
)

// CNT bit layout, chosen to keep every field disjoint (unlike real
// hardware's packed/reserved layout, which this emulator does not need to
// match bit-for-bit).
const (
	cntBusy         = 1 << 31 // RO: set while the channel is armed
	cntReloadDest   = 1 << 30
	cntReloadSrc    = 1 << 29
	cntRepeat       = 1 << 28
	cntIRQEnable    = 1 << 27
	cntTriggerEnable = 1 << 26 // 0: immediate (run to completion on start)
	cntTriggerShift = 16       // bits [19:16]
	cntSrcUpdateShift = 4      // bits [5:4]
	cntDestUpdateShift = 2     // bits [3:2]
)

// BusView adapts an Engine into a memory-mapped device.
type BusView struct {
	Eng *Engine
}

func (v *BusView) chanOffset(addr uint32) (int, uint32) {
	off := addr - Base
	return int(off) / chanStride, off % chanStride
}

func (v *BusView) Read32(addr uint32) uint32 {
	n, reg := v.chanOffset(addr)
	if n < 0 || n >= NumChannels {
		return 0
	}
	c := &v.Eng.Channels[n]

	switch reg {
	case regSAD:
		return c.Src
	case regDAD:
		return c.Dest
	case regTCNT:
		return c.TransferCount
	case regWCNT:
		return c.BlockSize
	case regCNT:
		return v.cntWord(c)
	default:
		return 0
	}
}

func (v *BusView) cntWord(c *Channel) uint32 {
	var w uint32
	if c.Busy {
		w |= cntBusy
	}
	if c.ReloadDest {
		w |= cntReloadDest
	}
	if c.ReloadSrc {
		w |= cntReloadSrc
	}
	if c.Repeat {
		w |= cntRepeat
	}
	if c.IRQEnable {
		w |= cntIRQEnable
	}
	if !c.Immediate {
		w |= cntTriggerEnable
	}
	w |= uint32(c.Trigger) << cntTriggerShift
	w |= uint32(c.SrcUpdate) << cntSrcUpdateShift
	w |= uint32(c.DestUpdate) << cntDestUpdateShift
	return w
}

func (v *BusView) Write32(addr uint32, val uint32) {
	n, reg := v.chanOffset(addr)
	if n < 0 || n >= NumChannels {
		return
	}
	c := &v.Eng.Channels[n]

	switch reg {
	case regSAD:
		c.Src = val
	case regDAD:
		c.Dest = val
	case regTCNT:
		c.TransferCount = val
	case regWCNT:
		c.BlockSize = val
	case regCNT:
		wasBusy := c.Busy

		c.ReloadDest = val&cntReloadDest != 0
		c.ReloadSrc = val&cntReloadSrc != 0
		c.Repeat = val&cntRepeat != 0
		c.IRQEnable = val&cntIRQEnable != 0
		c.Immediate = val&cntTriggerEnable == 0
		c.Trigger = Trigger((val >> cntTriggerShift) & 0xf)
		c.SrcUpdate = UpdateMode((val >> cntSrcUpdateShift) & 0x3)
		c.DestUpdate = UpdateMode((val >> cntDestUpdateShift) & 0x3)

		if val&cntBusy != 0 && !wasBusy {
			v.Eng.Start(n)
		}
	}
}

func (v *BusView) Read8(addr uint32) uint8         { return uint8(v.Read32(addr &^ 3)) }
func (v *BusView) Read16(addr uint32) uint16       { return uint16(v.Read32(addr &^ 3)) }
func (v *BusView) Write8(addr uint32, val uint8)   { v.Write32(addr&^3, uint32(val)) }
func (v *BusView) Write16(addr uint32, val uint16) { v.Write32(addr&^3, uint32(val)) }
