package dma330

// Register layout at XDMA9, 0x1000C000-0x1000CFFF per spec.md §6. Offsets
// follow the public ARM PL330 TRM's DBGSTATUS/DBGCMD/DBGINST0/DBGINST1
// debug-port layout and its per-channel CSR/CPC blocks, since spec.md's
// §4.6 models this engine directly on PL330/Corelink DMA330 semantics.
const (
	Base = 0x1000C000

	regDBGSTATUS = 0xD00 // bit0: debug instruction in flight
	regDBGCMD    = 0xD04 // write (any value): execute the staged debug instruction
	regDBGINST0  = 0xD08 // low 4 bytes of the 6-byte debug instruction
	regDBGINST1  = 0xD0C // high 2 bytes

	regCSRBase = 0x100 // + 8*channel: channel status (low byte = State)
	regCPCBase = 0x400 // + 8*channel: channel program counter
)

// BusView adapts an Engine into a memory-mapped device.
type BusView struct {
	Eng *Engine

	dbgInst0 uint32
	dbgLow2  uint16
}

func (v *BusView) Read32(addr uint32) uint32 {
	off := addr - Base

	switch {
	case off == regDBGSTATUS:
		return 0 // debug execution is synchronous; never observed busy
	case off >= regCSRBase && off < regCSRBase+8*8:
		n := int(off-regCSRBase) / 8
		return uint32(v.Eng.Channels[n].State)
	case off >= regCPCBase && off < regCPCBase+8*8:
		n := int(off-regCPCBase) / 8
		return v.Eng.Channels[n].PC
	default:
		return 0
	}
}

func (v *BusView) Write32(addr uint32, val uint32) {
	off := addr - Base

	switch off {
	case regDBGINST0:
		v.dbgInst0 = val
	case regDBGINST1:
		v.dbgLow2 = uint16(val)
	case regDBGCMD:
		var instr [6]byte
		instr[0] = byte(v.dbgInst0)
		instr[1] = byte(v.dbgInst0 >> 8)
		instr[2] = byte(v.dbgInst0 >> 16)
		instr[3] = byte(v.dbgInst0 >> 24)
		instr[4] = byte(v.dbgLow2)
		instr[5] = byte(v.dbgLow2 >> 8)
		v.Eng.DebugLoad(int(v.dbgInst0&1), instr)
	}
}

func (v *BusView) Read8(addr uint32) uint8         { return uint8(v.Read32(addr &^ 3)) }
func (v *BusView) Read16(addr uint32) uint16       { return uint16(v.Read32(addr &^ 3)) }
func (v *BusView) Write8(addr uint32, val uint8)   { v.Write32(addr&^3, uint32(val)) }
func (v *BusView) Write16(addr uint32, val uint16) { v.Write32(addr&^3, uint32(val)) }
