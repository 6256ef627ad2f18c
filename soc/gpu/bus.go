package gpu

// Register layout, mapped at 0x10400000 per spec.md §4.17. Each screen
// gets its own descriptor block; the two fill channels share one block.
const (
	Base = 0x10400000

	topAddrA   = 0x68
	topAddrB   = 0x6c
	topFormat  = 0x70
	topSelect  = 0x78 // bit4 selects A(0)/B(1)

	bottomAddrA  = 0x94
	bottomAddrB  = 0x98
	bottomFormat = 0x90
	bottomSelect = 0x9c

	fill0Start = 0x00
	fill0End   = 0x04
	fill0Value = 0x08
	fill0Cnt   = 0x0c // bit0 start, bit1 done (W1C)

	fill1Start = 0x10
	fill1End   = 0x14
	fill1Value = 0x18
	fill1Cnt   = 0x1c
)

// BusView adapts an Engine into a memory-mapped device; WriteBus is the
// memory backing scanout reads/fill writes (typically the main system
// bus).
type BusView struct {
	Eng *Engine
	Mem interface {
		Bus
		WriteBus
	}
}

func (v *BusView) Read32(addr uint32) uint32 {
	switch addr - Base {
	case topFormat:
		return uint32(v.Eng.Top.Format)
	case bottomFormat:
		return uint32(v.Eng.Bottom.Format)
	case fill0Cnt:
		return doneBit(v.Eng.Fill[0].Done)
	case fill1Cnt:
		return doneBit(v.Eng.Fill[1].Done)
	default:
		return 0
	}
}

func doneBit(done bool) uint32 {
	if done {
		return 1 << 1
	}
	return 0
}

func (v *BusView) Write32(addr uint32, val uint32) {
	switch addr - Base {
	case topAddrA:
		v.Eng.Top.AddrA = val
	case topAddrB:
		v.Eng.Top.AddrB = val
	case topFormat:
		v.Eng.Top.Format = ColorFormat(val)
	case topSelect:
		v.Eng.Top.ActiveA = val&(1<<4) == 0

	case bottomAddrA:
		v.Eng.Bottom.AddrA = val
	case bottomAddrB:
		v.Eng.Bottom.AddrB = val
	case bottomFormat:
		v.Eng.Bottom.Format = ColorFormat(val)
	case bottomSelect:
		v.Eng.Bottom.ActiveA = val&(1<<4) == 0

	case fill0Start:
		v.Eng.Fill[0].Start = val
	case fill0End:
		v.Eng.Fill[0].End = val
	case fill0Value:
		v.Eng.Fill[0].Value = val
	case fill0Cnt:
		if val&1 != 0 {
			v.Eng.Fill[0].Done = false
			v.Eng.Fill[0].Run(v.Mem)
		}
		if val&2 != 0 {
			v.Eng.Fill[0].Done = false
		}

	case fill1Start:
		v.Eng.Fill[1].Start = val
	case fill1End:
		v.Eng.Fill[1].End = val
	case fill1Value:
		v.Eng.Fill[1].Value = val
	case fill1Cnt:
		if val&1 != 0 {
			v.Eng.Fill[1].Done = false
			v.Eng.Fill[1].Run(v.Mem)
		}
		if val&2 != 0 {
			v.Eng.Fill[1].Done = false
		}
	}
}

func (v *BusView) Read8(addr uint32) uint8         { return uint8(v.Read32(addr &^ 3)) }
func (v *BusView) Read16(addr uint32) uint16       { return uint16(v.Read32(addr &^ 3)) }
func (v *BusView) Write8(addr uint32, val uint8)   { v.Write32(addr&^3, uint32(val)) }
func (v *BusView) Write16(addr uint32, val uint16) { v.Write32(addr&^3, uint32(val)) }
