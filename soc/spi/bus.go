package spi

// Register layout, one block per bus, spaced 0x1000 apart starting at
// 0x1014_0000 (bus 0 = CODEC, bus 1 = touchscreen, bus 2 = NVRAM/save
// chip), per spec.md §4.12. Not one of the addresses spec.md's §6 map
// calls "exact" (that list only pins the 3DS-specific cartridge/crypto
// blocks); placed outside every range that list does pin, notably clear
// of NDMA at 0x10002000-0x10002FFF.
const (
	Base      = 0x10140000
	busStride = 0x1000

	regCnt  = 0x00 // bit0 enable (chip-select), [11:8] device id
	regData = 0x02 // read: last byte clocked in; write: clocks one byte out+in
)

// BusView adapts a Controller into a memory-mapped device, one instance
// per bus index.
type BusView struct {
	Ctl  *Controller
	Bus  int

	cnt      uint32
	lastByte byte
}

func (v *BusView) regOffset(addr uint32) uint32 {
	return addr - Base - uint32(v.Bus)*busStride
}

func (v *BusView) Read16(addr uint32) uint16 {
	switch v.regOffset(addr) {
	case regCnt:
		return uint16(v.cnt)
	case regData:
		return uint16(v.lastByte)
	default:
		return 0
	}
}

func (v *BusView) Write16(addr uint32, val uint16) {
	switch v.regOffset(addr) {
	case regCnt:
		wasEnabled := v.cnt&1 != 0
		v.cnt = uint32(val)
		dev := int((val >> 8) & 0xf)
		bus := v.Ctl.Buses[v.Bus]

		if val&1 != 0 && !wasEnabled {
			bus.Select(dev)
		} else if val&1 == 0 {
			bus.Deselect()
		}

	case regData:
		bus := v.Ctl.Buses[v.Bus]
		out := make([]byte, 1)
		bus.Tx([]byte{byte(val)}, out)
		v.lastByte = out[0]
	}
}

func (v *BusView) Read8(addr uint32) uint8   { return uint8(v.Read16(addr)) }
func (v *BusView) Read32(addr uint32) uint32 { return uint32(v.Read16(addr)) }
func (v *BusView) Write8(addr uint32, val uint8)   { v.Write16(addr, uint16(val)) }
func (v *BusView) Write32(addr uint32, val uint32) { v.Write16(addr, uint16(val)) }
