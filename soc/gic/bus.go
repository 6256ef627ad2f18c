package gic

// GICD/GICC offsets, following the teacher's arm/gic/gic.go naming.
const (
	Base = 0x17E00000

	gicdOff = 0x1000
	giccOff = 0x2000

	gicdCTLR       = gicdOff + 0x000
	gicdISENABLER  = gicdOff + 0x100 // banked per core for ids 0-31
	gicdICENABLER  = gicdOff + 0x180
	gicdISPENDR    = gicdOff + 0x200
	gicdICPENDR    = gicdOff + 0x280
	gicdIPRIORITYR = gicdOff + 0x400 // one byte per int id
	gicdITARGETSR  = gicdOff + 0x800 // one byte per int id, global only
	gicdSGIR       = gicdOff + 0xf00

	giccCTLR = giccOff + 0x00
	giccPMR  = giccOff + 0x04
	giccBPR  = giccOff + 0x08 // preemption mask
	giccIAR  = giccOff + 0x0c
	giccEOIR = giccOff + 0x10
	giccRPR  = giccOff + 0x14 // read: current active IRQ id
	giccHPPIR = giccOff + 0x18
)

// CoreView is the bus-mapped register window one ARM11 core sees of the
// PMR: the GICC CPU interface is inherently per-core, and the GICD
// registers covering ids 0-31 are banked per core too (ARM GIC architecture
// spec §4.3.2), so each core gets its own CoreView over the shared PMR.
type CoreView struct {
	PMR  *PMR
	Core int
}

func (v *CoreView) Read32(addr uint32) uint32 {
	off := addr - Base

	switch {
	case off == gicdCTLR:
		return 1 // enabled
	case off >= gicdIPRIORITYR && off < gicdIPRIORITYR+NumInts:
		id := int(off - gicdIPRIORITYR)
		return uint32(v.PMR.priorityOf(v.Core, id))
	case off >= gicdITARGETSR && off < gicdITARGETSR+NumInts:
		id := int(off - gicdITARGETSR)
		return uint32(v.PMR.target[id])
	case off == giccPMR:
		return uint32(v.PMR.cores[v.Core].priorityMask)
	case off == giccBPR:
		return uint32(v.PMR.cores[v.Core].preemptionMask)
	case off == giccIAR:
		return v.PMR.Acknowledge(v.Core)
	case off == giccRPR:
		return v.PMR.CurActiveIRQ(v.Core)
	case off == giccHPPIR:
		return v.PMR.HighestPending(v.Core)
	default:
		return 0
	}
}

func (v *CoreView) Write32(addr uint32, val uint32) {
	off := addr - Base

	switch {
	case off == gicdCTLR:
		v.PMR.Enable(v.Core, val&1 != 0)
	case off >= gicdISENABLER && off < gicdISENABLER+16:
		forEachSetBit(val, int(off-gicdISENABLER)*8, func(id int) { v.PMR.SetMask(id, true) })
	case off >= gicdICENABLER && off < gicdICENABLER+16:
		forEachSetBit(val, int(off-gicdICENABLER)*8, func(id int) { v.PMR.SetMask(id, false) })
	case off >= gicdISPENDR && off < gicdISPENDR+16:
		forEachSetBit(val, int(off-gicdISPENDR)*8, func(id int) { v.PMR.SetPendingIRQ(v.Core, id, v.Core) })
	case off >= gicdICPENDR && off < gicdICPENDR+16:
		// clearing pending is not separately modeled per-bit; handled via Acknowledge/EOI
	case off >= gicdIPRIORITYR && off < gicdIPRIORITYR+NumInts:
		id := int(off - gicdIPRIORITYR)
		v.PMR.SetPriority(v.Core, id, uint8(val))
	case off >= gicdITARGETSR && off < gicdITARGETSR+NumInts:
		id := int(off - gicdITARGETSR)
		v.PMR.SetTarget(id, uint8(val))
	case off == gicdSGIR:
		id := int(val & 0xf)
		filter := uint8((val >> 16) & 0xf)
		mode := SGITarget((val >> 24) & 0x3)
		v.PMR.SendSGI(id, v.Core, mode, filter)
	case off == giccPMR:
		v.PMR.SetPriorityMask(v.Core, uint8(val))
	case off == giccBPR:
		v.PMR.SetPreemptionMask(v.Core, uint8(val))
	case off == giccEOIR:
		v.PMR.EndOfInterrupt(v.Core)
	}
}

func forEachSetBit(val uint32, base int, fn func(id int)) {
	for i := 0; i < 32; i++ {
		if val&(1<<uint(i)) != 0 {
			fn(base + i)
		}
	}
}

func (v *CoreView) Read8(addr uint32) uint8     { return uint8(v.Read32(addr &^ 3)) }
func (v *CoreView) Read16(addr uint32) uint16   { return uint16(v.Read32(addr &^ 3)) }
func (v *CoreView) Write8(addr uint32, val uint8)   { v.Write32(addr&^3, uint32(val)) }
func (v *CoreView) Write16(addr uint32, val uint16) { v.Write32(addr&^3, uint32(val)) }
