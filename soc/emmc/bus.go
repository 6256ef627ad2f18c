package emmc

// Register layout, named after the teacher's USDHCx_* constants but
// address-compatible with the 3DS's SDIO3/eMMC block at 0x1000_6000.
const (
	Base = 0x10006000

	regBlkAtt  = 0x04 // [31:16] block count, [15:0] block size
	regCmdArg  = 0x08
	regCmdXfr  = 0x0c // [29:24] command index, bit 21 data-present
	regRsp0    = 0x10
	regRsp1    = 0x14
	regRsp2    = 0x18
	regRsp3    = 0x1c
	regData    = 0x20 // FIFO port, 32 bits wide
	regIntStat = 0x30 // ISTAT, see emmc.go's ISTAT_* bits
	regIntMask = 0x38 // IMASK, gates which ISTAT edges raise the host IRQ
)

// BusView adapts a Controller into a memory-mapped device.
type BusView struct {
	Ctl *Controller

	blkAtt uint32
	cmdArg uint32
}

func (v *BusView) Read32(addr uint32) uint32 {
	switch addr - Base {
	case regBlkAtt:
		return v.blkAtt
	case regRsp0:
		return v.Ctl.Response[0]
	case regRsp1:
		return v.Ctl.Response[1]
	case regRsp2:
		return v.Ctl.Response[2]
	case regRsp3:
		return v.Ctl.Response[3]
	case regData:
		return v.Ctl.ReadFIFO32()
	case regIntStat:
		return v.Ctl.IStat()
	case regIntMask:
		return v.Ctl.IMask()
	default:
		return 0
	}
}

func (v *BusView) Write32(addr uint32, val uint32) {
	switch addr - Base {
	case regBlkAtt:
		v.blkAtt = val
	case regCmdArg:
		v.cmdArg = val
	case regCmdXfr:
		index := (val >> 24) & 0x3f
		v.Ctl.SetBlockCount(v.blkAtt >> 16)
		v.Ctl.Execute(index, v.cmdArg)
		if v.Ctl.Err() != nil {
			v.Ctl.setIStat(ISTAT_ERROR)
		}
	case regData:
		v.Ctl.WriteFIFO32(val)
	case regIntStat:
		v.Ctl.WriteIStat(val)
	case regIntMask:
		v.Ctl.WriteIMask(val)
	}
}

func (v *BusView) Read8(addr uint32) uint8   { return uint8(v.Read32(addr &^ 3)) }
func (v *BusView) Read16(addr uint32) uint16 { return uint16(v.Read32(addr &^ 3)) }
func (v *BusView) Write8(addr uint32, val uint8)   { v.Write32(addr&^3, uint32(val)) }
func (v *BusView) Write16(addr uint32, val uint16) { v.Write32(addr&^3, uint32(val)) }
