// Package emmc implements the eMMC/SD host-and-card pair of SPEC_FULL §3/§4.7:
// a command+data state machine fronting a NAND (eMMC) card and an optional SD
// card, each backed by a flat image file, with a FIFO-based data path.
//
// Register and command naming is grounded on the teacher's soc/imx6/usdhc
// driver (USDHCx_CMD_ARG, USDHCx_BLK_ATT, CMD_XFR_TYP_* bit names, the
// RSP_NONE/RSP_136/RSP_48/RSP_48_CHECK_BUSY response-type enum); the state
// machine itself models the CARD side of that protocol (SD-PL-7.10 §4.4,
// JESD84-B51 §6.3), since this package stands in for the silicon the
// teacher's driver talks to rather than for the driver itself.
package emmc

import "errors"

// Card commands this controller understands (spec.md §4.7).
const (
	CmdGoIdleState     = 0
	CmdAllSendCID      = 2
	CmdSendRelativeAddr = 3
	CmdSelectCard      = 7
	CmdSendIfCond      = 8
	CmdSendCSD         = 9
	CmdStopTransmission = 12
	CmdSendStatus      = 13
	CmdSetBlockLen     = 16
	CmdReadMultiple    = 18
	CmdWriteMultiple   = 25
	CmdAppCmd          = 55

	ACmdSetBusWidth = 6
	ACmdSDStatus    = 13
	ACmdSendOpCond  = 41
)

// ISTAT bits (spec.md §4.7: "ISTAT_CMDEND=bit0, ISTAT_DATAEND=bit2,
// RXRDY=bit24, TXRQ=bit25"). ISTAT_ERROR is this emulator's own addition,
// set whenever the preceding command left Err() non-nil.
const (
	ISTAT_CMDEND  = 1 << 0
	ISTAT_DATAEND = 1 << 2
	ISTAT_ERROR   = 1 << 15
	ISTAT_RXRDY   = 1 << 24
	ISTAT_TXRQ    = 1 << 25
)

// NDMA trigger ids this controller requests against on a read-data-ready
// edge (mirrors ndma.Trigger's NDMA_MMC1/NDMA_AES2; kept as plain ints so
// this package doesn't import soc/ndma — see system.Machine's wiring).
const (
	ndmaMMC1 = 11
	ndmaAES2 = 12
)

// State is the card's protocol state (SD-PL-7.10 Figure 4-13, restricted to
// the states this emulator's callers exercise).
type State int

const (
	Idle State = iota
	Ready
	Identify
	Standby
	Transfer
	SendingData
	ReceiveData
	Programming
)

// Kind distinguishes the two backing protocols; response details (CMD3
// semantics, ACMD41 busy-bit framing) differ between them.
type Kind int

const (
	KindMMC Kind = iota // eMMC/NAND: host assigns RCA, OCR busy bit set by controller
	KindSD
)

// Card is one inserted card: a flat image plus the identification registers
// a real card would report.
type Card struct {
	Kind Kind

	Image    []byte
	BlockLen uint32

	RCA  uint16
	CID  [4]uint32
	CSD  [4]uint32

	state State

	// opCondPolls counts ACMD41 polls for the "ready" busy bit: the card
	// reports busy on the first poll and power-up complete from the second.
	opCondPolls int
}

// NewCard returns a card backed by image, which is used directly (not
// copied) as the card's block store.
func NewCard(kind Kind, image []byte) *Card {
	return &Card{
		Kind:     kind,
		Image:    image,
		BlockLen: 512,
		state:    Idle,
		CSD:      [4]uint32{0, 0, 0, 0x400e0032}, // read/write block len = 512 in low CSD word
	}
}

func (c *Card) totalBlocks() uint32 {
	if c.BlockLen == 0 {
		return 0
	}
	return uint32(len(c.Image)) / c.BlockLen
}

// Controller is the host-side command/data engine. Two cards can be
// attached: NAND is always present, SD is optional (empty slot if no card
// inserted).
type Controller struct {
	NAND *Card
	SD   *Card

	selected *Card // card CMD7 has selected, nil if none

	appCmdArmed bool // CMD55 seen, next command is an ACMD

	// data path
	fifo      []byte
	fifoPos   int
	transferBlocksLeft uint32
	transferIsWrite    bool
	blockAddr          uint32
	active             *Card
	blockCount         uint32 // BLK_ATT's block count, 0 = open-ended

	Response [4]uint32 // up to 128 bits, word 0 first
	lastErr  error

	istat uint32
	imask uint32

	// IRQ fires the host interrupt line (spec.md §4.7's edge-gated
	// CMDEND/DATAEND/RXRDY/TXRQ delivery); Request fires the NDMA trigger
	// arbitration path on a read-data-ready edge.
	IRQ     func()
	Request func(trigger int)
}

// New returns a controller with nand always attached; sd may be nil.
func New(nand *Card, sd *Card) *Controller {
	return &Controller{NAND: nand, SD: sd}
}

func (ctl *Controller) cardForRCA(rca uint16) *Card {
	if ctl.NAND != nil && ctl.NAND.RCA == rca {
		return ctl.NAND
	}
	if ctl.SD != nil && ctl.SD.RCA == rca {
		return ctl.SD
	}
	return nil
}

// Err returns the error, if any, raised by the most recently executed
// command (e.g. an unmapped block range).
func (ctl *Controller) Err() error { return ctl.lastErr }

// IStat and IMask expose the raw interrupt-status/mask registers to
// BusView.
func (ctl *Controller) IStat() uint32 { return ctl.istat }
func (ctl *Controller) IMask() uint32 { return ctl.imask }

// WriteIMask replaces the mask register.
func (ctl *Controller) WriteIMask(val uint32) { ctl.imask = val }

// WriteIStat clears the bits set in val (write-1-to-clear, spec.md §4.7).
func (ctl *Controller) WriteIStat(val uint32) { ctl.istat &^= val }

// SetBlockCount records BLK_ATT's block count ahead of the next
// CmdReadMultiple/CmdWriteMultiple; zero means open-ended, terminated only
// by CmdStopTransmission (the behavior every existing fixture that never
// touches BLK_ATT relies on).
func (ctl *Controller) SetBlockCount(n uint32) { ctl.blockCount = n }

// setIStat ORs field into istat and fires the host IRQ exactly once, on
// the old&imask&field==0 -> istat&imask&field!=0 edge, per spec.md §4.7's
// interrupt rule ("when a bit transitions ... the host IRQ fires once
// (edge-gated per mask)"); grounded on emmc.cpp's set_istat.
func (ctl *Controller) setIStat(field uint32) {
	old := ctl.istat
	ctl.istat |= field
	if old&ctl.imask&field == 0 && ctl.istat&ctl.imask&field != 0 && ctl.IRQ != nil {
		ctl.IRQ()
	}
}

// dataReady mirrors emmc.cpp's data_ready(): a read word became available,
// so raise RXRDY and request the NDMA channels that move eMMC read data
// onward (spec.md §4.7: "raise RXRDY (+ NDMA_MMC1/NDMA_AES2 request)").
func (ctl *Controller) dataReady() {
	ctl.setIStat(ISTAT_RXRDY)
	if ctl.Request != nil {
		ctl.Request(ndmaMMC1)
		ctl.Request(ndmaAES2)
	}
}

// transferEnd mirrors emmc.cpp's transfer_end(): ends the active data
// phase, transitions the selected card's state depending on what state it
// was in when the transfer ended, and raises DATAEND + CMDEND once.
func (ctl *Controller) transferEnd() {
	ctl.active = nil
	ctl.transferBlocksLeft = 0

	if ctl.selected != nil {
		switch ctl.selected.state {
		case SendingData, ReceiveData:
			ctl.selected.state = Transfer
		default:
			ctl.selected.state = Standby
		}
	}

	ctl.istat &^= ISTAT_CMDEND // re-arm CMDEND's edge before re-raising it
	ctl.setIStat(ISTAT_DATAEND)
	ctl.setIStat(ISTAT_CMDEND)
}

// Execute runs one command against arg, per spec.md §4.7's command table.
// On RSP_48/RSP_136 commands Response is populated; callers should read it
// before issuing the next command.
func (ctl *Controller) Execute(index uint32, arg uint32) {
	ctl.lastErr = nil

	if ctl.appCmdArmed {
		ctl.appCmdArmed = false
		ctl.executeACmd(index, arg)
		return
	}

	deferCMDEND := false

	switch index {
	case CmdGoIdleState:
		ctl.forEachCard(func(c *Card) { c.state = Idle; c.RCA = 0 })
		ctl.selected = nil
		ctl.istat = 0

	case CmdAllSendCID:
		c := ctl.firstInState(Ready)
		if c == nil {
			c = ctl.firstInState(Idle)
		}
		if c != nil {
			c.state = Identify
			ctl.Response = c.CID
		}

	case CmdSendRelativeAddr:
		c := ctl.firstInState(Identify)
		if c == nil {
			ctl.lastErr = errors.New("emmc: no card in identify state")
			return
		}
		if c.Kind == KindMMC {
			c.RCA = uint16(arg >> 16)
		} else {
			c.RCA = 0xaaaa // SD cards publish their own RCA; a fixed one suffices here
		}
		c.state = Standby
		ctl.Response[0] = uint32(c.RCA)<<16 | statusWord(c)

	case CmdSelectCard:
		rca := uint16(arg >> 16)
		c := ctl.cardForRCA(rca)
		if c == nil {
			ctl.selected = nil
			return
		}
		c.state = Transfer
		ctl.selected = c
		ctl.Response[0] = statusWord(c)

	case CmdSendIfCond:
		ctl.Response[0] = arg & 0xfff // echo voltage/check pattern, SD-PL-7.10 §4.3.13

	case CmdSendCSD:
		rca := uint16(arg >> 16)
		c := ctl.cardForRCA(rca)
		if c != nil {
			ctl.Response = c.CSD
		}

	case CmdStopTransmission:
		ctl.transferEnd()
		deferCMDEND = true

	case CmdSendStatus:
		if ctl.selected != nil {
			ctl.Response[0] = statusWord(ctl.selected)
		}

	case CmdSetBlockLen:
		if ctl.selected != nil {
			ctl.selected.BlockLen = arg
		}

	case CmdReadMultiple:
		ctl.startTransfer(arg, false)
		deferCMDEND = true

	case CmdWriteMultiple:
		ctl.startTransfer(arg, true)
		deferCMDEND = true

	case CmdAppCmd:
		ctl.appCmdArmed = true
		rca := uint16(arg >> 16)
		if c := ctl.cardForRCA(rca); c != nil {
			ctl.Response[0] = statusWord(c)
		}

	default:
		ctl.lastErr = errors.New("emmc: unsupported command")
	}

	if !deferCMDEND {
		ctl.setIStat(ISTAT_CMDEND)
	}
}

func (ctl *Controller) executeACmd(index uint32, arg uint32) {
	ctl.istat &^= ISTAT_CMDEND // re-arm CMDEND's edge, per emmc.cpp's send_acmd

	switch index {
	case ACmdSetBusWidth:
		// bus width negotiation has no observable effect in this model

	case ACmdSDStatus:
		if ctl.selected != nil {
			ctl.Response[0] = statusWord(ctl.selected)
		}

	case ACmdSendOpCond:
		c := ctl.SD
		if c == nil {
			ctl.lastErr = errors.New("emmc: no SD card inserted")
			return
		}
		c.opCondPolls++
		const ocrBusyBit = 1 << 31
		const ocrVoltageWindow = 0x00ff8000
		if c.opCondPolls >= 2 {
			ctl.Response[0] = ocrBusyBit | ocrVoltageWindow
			c.state = Ready
		} else {
			ctl.Response[0] = ocrVoltageWindow // busy bit clear: not yet ready
		}

	default:
		ctl.lastErr = errors.New("emmc: unsupported app command")
	}

	ctl.setIStat(ISTAT_CMDEND)
}

func (ctl *Controller) forEachCard(fn func(*Card)) {
	if ctl.NAND != nil {
		fn(ctl.NAND)
	}
	if ctl.SD != nil {
		fn(ctl.SD)
	}
}

func (ctl *Controller) firstInState(s State) *Card {
	if ctl.NAND != nil && ctl.NAND.state == s {
		return ctl.NAND
	}
	if ctl.SD != nil && ctl.SD.state == s {
		return ctl.SD
	}
	return nil
}

func statusWord(c *Card) uint32 {
	const currentStateShift = 9
	var cs uint32
	switch c.state {
	case Identify:
		cs = 2
	case Standby:
		cs = 3
	case Transfer, SendingData, ReceiveData, Programming:
		cs = 4
	}
	return cs << currentStateShift
}

func (ctl *Controller) startTransfer(arg uint32, write bool) {
	c := ctl.selected
	if c == nil {
		ctl.lastErr = errors.New("emmc: no card selected")
		return
	}

	blockLen := c.BlockLen
	if blockLen == 0 {
		blockLen = 512
	}

	startByte := uint64(arg) * uint64(blockLen)
	if startByte+uint64(blockLen) > uint64(len(c.Image)) {
		ctl.lastErr = errors.New("emmc: block address out of range")
		return
	}

	ctl.active = c
	ctl.blockAddr = arg
	ctl.transferIsWrite = write
	ctl.transferBlocksLeft = ^uint32(0) // "multiple block", stopped by CMD12
	if ctl.blockCount != 0 {
		ctl.transferBlocksLeft = ctl.blockCount
	}

	if write {
		c.state = ReceiveData
		ctl.fifo = make([]byte, blockLen)
		ctl.fifoPos = 0
		ctl.setIStat(ISTAT_TXRQ)
	} else {
		c.state = SendingData
		ctl.loadBlockIntoFIFO()
		ctl.dataReady()
	}
}

func (ctl *Controller) loadBlockIntoFIFO() {
	c := ctl.active
	blockLen := c.BlockLen
	off := uint64(ctl.blockAddr) * uint64(blockLen)
	ctl.fifo = append([]byte(nil), c.Image[off:off+uint64(blockLen)]...)
	ctl.fifoPos = 0
}

// ReadFIFO32 pulls the next word of a read (SendingData) transfer,
// advancing to the next block when the current one is exhausted.
func (ctl *Controller) ReadFIFO32() uint32 {
	if ctl.active == nil || ctl.fifoPos+4 > len(ctl.fifo) {
		return 0
	}
	v := uint32(ctl.fifo[ctl.fifoPos]) | uint32(ctl.fifo[ctl.fifoPos+1])<<8 |
		uint32(ctl.fifo[ctl.fifoPos+2])<<16 | uint32(ctl.fifo[ctl.fifoPos+3])<<24
	ctl.fifoPos += 4

	if ctl.fifoPos >= len(ctl.fifo) {
		if ctl.transferBlocksLeft != ^uint32(0) {
			ctl.transferBlocksLeft--
			if ctl.transferBlocksLeft == 0 {
				ctl.transferEnd()
				return v
			}
		}
		ctl.blockAddr++
		ctl.loadBlockIntoFIFO()
		ctl.dataReady()
	}
	return v
}

// WriteFIFO32 pushes the next word of a write (ReceiveData) transfer,
// flushing the block to the card image once full.
func (ctl *Controller) WriteFIFO32(val uint32) {
	if ctl.active == nil || ctl.fifoPos+4 > len(ctl.fifo) {
		return
	}
	ctl.fifo[ctl.fifoPos] = byte(val)
	ctl.fifo[ctl.fifoPos+1] = byte(val >> 8)
	ctl.fifo[ctl.fifoPos+2] = byte(val >> 16)
	ctl.fifo[ctl.fifoPos+3] = byte(val >> 24)
	ctl.fifoPos += 4

	if ctl.fifoPos >= len(ctl.fifo) {
		c := ctl.active
		off := uint64(ctl.blockAddr) * uint64(c.BlockLen)
		copy(c.Image[off:off+uint64(c.BlockLen)], ctl.fifo)
		ctl.blockAddr++
		ctl.fifoPos = 0
		for i := range ctl.fifo {
			ctl.fifo[i] = 0
		}

		if ctl.transferBlocksLeft != ^uint32(0) {
			ctl.transferBlocksLeft--
			if ctl.transferBlocksLeft == 0 {
				ctl.transferEnd()
				return
			}
		}
		ctl.setIStat(ISTAT_TXRQ)
	}
}

// State reports the currently selected card's protocol state (Idle if none
// selected).
func (ctl *Controller) State() State {
	if ctl.selected == nil {
		return Idle
	}
	return ctl.selected.state
}
