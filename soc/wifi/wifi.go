// Package wifi implements the SDIO front-end of SPEC_FULL §3/§4.16: CMD52
// (single-byte) and CMD53 (block) function-register access across the
// SDIO function-0 (card common control) and function-1 (WLAN) spaces, a
// paged window mechanism for reaching the embedded Xtensa core's RAM, and
// the 8 mailbox FIFOs that carry BMI (pre-firmware) and WMI
// (post-firmware) protocol traffic.
//
// Grounded on the eMMC package's command-dispatch shape in this tree
// (soc/emmc): a host-side Execute(cmd, arg) entry point driving a small
// state machine, reused here for SDIO's CMD52/CMD53 instead of SD's
// command set, since the pack itself has no SDIO peripheral analogue.
package wifi

import (
	"github.com/nine11/lle3ds/soc/wifi/bmi"
	"github.com/nine11/lle3ds/soc/wifi/mailbox"
	"github.com/nine11/lle3ds/xtensa"
)

// SDIO function spaces.
const (
	FuncCommon = 0
	FuncWLAN   = 1
)

// Controller is the WiFi chip's SDIO-visible front-end.
type Controller struct {
	CPU    *xtensa.CPU
	Target *bmi.Target

	Mailboxes mailbox.Set

	window uint32 // current WINDOW_*_ADDR target into the Xtensa RAM

	f1IRQ bool // function-1 interrupt pending (e.g. mailbox not-empty)
	f0Mask bool // function-0 interrupt enable, gates SDIO card-IRQ line

	firmwareStarted bool
}

// NewController returns a controller wired to cpu (the embedded Xtensa
// core) and target (its RAM view, shared with the BMI handler).
func NewController(cpu *xtensa.CPU, target *bmi.Target) *Controller {
	return &Controller{CPU: cpu, Target: target}
}

// CMD52 performs a single-byte function-register access.
func (c *Controller) CMD52(fn int, addr uint32, write bool, val byte) byte {
	switch fn {
	case FuncCommon:
		return c.accessF0(addr, write, val)
	case FuncWLAN:
		return c.accessF1Byte(addr, write, val)
	default:
		return 0xFF
	}
}

// CMD53 performs a block access of length bytes starting at addr within
// function fn, reading from/writing to buf.
func (c *Controller) CMD53(fn int, addr uint32, write bool, buf []byte) {
	if fn != FuncWLAN {
		return
	}
	for i := range buf {
		buf[i] = c.accessF1Byte(addr, write, pick(write, buf, i))
	}
}

func pick(write bool, buf []byte, i int) byte {
	if write {
		return buf[i]
	}
	return 0
}

// F0 registers: interrupt enable/pending, and the two window registers a
// real chip exposes at the common-control level so function-1 block
// transfers can target arbitrary embedded RAM.
const (
	regF0IntrEnable = 0x04
	regF0IntrPend   = 0x05
	regWindowWriteAddr = 0x10 // 3 consecutive bytes, LSB first
	regWindowReadAddr  = 0x13
)

func (c *Controller) accessF0(addr uint32, write bool, val byte) byte {
	switch addr {
	case regF0IntrEnable:
		if write {
			c.f0Mask = val&1 != 0
			return 0
		}
		if c.f0Mask {
			return 1
		}
		return 0

	case regF0IntrPend:
		if c.f1IRQ && c.f0Mask {
			return 1
		}
		return 0

	case regWindowWriteAddr, regWindowWriteAddr + 1, regWindowWriteAddr + 2:
		return c.windowByte(addr-regWindowWriteAddr, write, val)
	case regWindowReadAddr, regWindowReadAddr + 1, regWindowReadAddr + 2:
		return c.windowByte(addr-regWindowReadAddr, write, val)

	default:
		return 0
	}
}

func (c *Controller) windowByte(shift uint32, write bool, val byte) byte {
	if write {
		c.window = (c.window &^ (0xff << (shift * 8))) | uint32(val)<<(shift*8)
		return 0
	}
	return byte(c.window >> (shift * 8))
}

// F1 registers: 8 mailbox data ports, plus their status.
const (
	regMailboxBase = 0x00 // 8 consecutive 1-byte ports
)

func (c *Controller) accessF1Byte(addr uint32, write bool, val byte) byte {
	if addr < mailbox.NumMailboxes {
		n := int(addr)
		if write {
			c.Mailboxes.ToFirmware[n].Push(val)
			c.deliverPendingBMI(n)
			return 0
		}
		b, _ := c.Mailboxes.ToHost[n].Pop()
		if c.Mailboxes.ToHost[n].Len() == 0 {
			c.f1IRQ = false
		}
		return b
	}

	// anything outside the mailbox ports is routed through the windowed
	// RAM view, byte at a time.
	if c.CPU == nil {
		return 0
	}
	if write {
		c.CPU.Bus.Write32(c.window&^3, uint32(val)<<((c.window&3)*8))
		return 0
	}
	return byte(c.CPU.Bus.Read32(c.window &^ 3) >> ((c.window & 3) * 8))
}

// deliverPendingBMI hands a fully-framed BMI request in mailbox n to the
// firmware target once the firmware has not yet started (spec.md §4.16's
// BMI-before-WMI ordering), synthesizing the reply directly into the
// corresponding host-bound mailbox.
func (c *Controller) deliverPendingBMI(n int) {
	if c.firmwareStarted || c.Target == nil {
		return
	}

	raw := c.Mailboxes.ToFirmware[n].Peek()
	req, err := bmi.Decode(raw)
	if err != nil {
		return // frame not complete yet; wait for more bytes
	}
	c.Mailboxes.ToFirmware[n].Clear()

	resp := c.Target.Handle(req)
	if req.Cmd == bmi.CmdExecute {
		c.firmwareStarted = true
	}

	wire, err := bmi.EncodeResponse(resp)
	if err != nil {
		return
	}
	for _, b := range wire {
		c.Mailboxes.ToHost[n].Push(b)
	}
	c.f1IRQ = true
}
