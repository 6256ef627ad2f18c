// Package cpu9 models the ARM946E-S core's exception/interrupt contract
// seen by the rest of the 3DS boot emulator. spec.md's Non-goals put full
// ARM instruction decoding out of scope, so Core does not execute ARM/Thumb
// instructions itself; it holds the architectural state (PC, CPSR mode
// bits, banked link registers for exception entry) and the IRQ edge
// contract every other package dials into, and defers instruction stepping
// to an injected Decoder.
//
// Grounded on the teacher's arm/exception.go (vector offsets, the
// mode/vector naming pattern) and arm/irq.go (interrupt enable/disable as
// explicit methods rather than an always-on runtime default); CPSR mode
// values are the standard ARM architecture encodings, not teacher-specific.
package cpu9

import "fmt"

// Exception vector offsets, following the teacher's arm/exception.go table
// (ARM Cortex-A Series Programmer's Guide, table 11-1) applied to the
// ARM946E-S's classic ARMv5 vector layout.
const (
	VectorReset          = 0x00
	VectorUndefined      = 0x04
	VectorSupervisor     = 0x08
	VectorPrefetchAbort  = 0x0c
	VectorDataAbort      = 0x10
	VectorIRQ            = 0x18
	VectorFIQ            = 0x1c
)

// CPSR mode field values (ARM architecture reference manual, not
// teacher-specific).
const (
	ModeUSR = 0x10
	ModeFIQ = 0x11
	ModeIRQ = 0x12
	ModeSVC = 0x13
	ModeABT = 0x17
	ModeUND = 0x1b
	ModeSYS = 0x1f
)

const (
	cpsrI = 1 << 7 // IRQ disable
	cpsrF = 1 << 6 // FIQ disable
)

// Bus is the address space the core's decoder reads instructions and data
// from; identical in shape to bus.Bus so a *bus.Bus satisfies it directly.
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, val uint8)
	Write16(addr uint32, val uint16)
	Write32(addr uint32, val uint32)
}

// Decoder executes exactly one guest instruction against core, advancing
// PC and touching whatever registers it decodes; supplied by the caller
// since the instruction set itself is out of scope here.
type Decoder func(core *Core)

// Core is the ARM9 architectural state visible to bus-mapped devices and
// the top-level scheduler.
type Core struct {
	R   [16]uint32 // R0-R14 general purpose, R15 mirrors PC
	CPSR uint32

	Bus     Bus
	Decoder Decoder

	irqPending bool
	fiqPending bool

	Halted bool
}

// New returns a core reset per spec.md's reset vector behavior: PC at the
// boot9 entry point, supervisor mode, both interrupt lines masked.
func New(bus Bus, resetPC uint32) *Core {
	c := &Core{Bus: bus}
	c.Reset(resetPC)
	return c
}

// PC returns the program counter (R15).
func (c *Core) PC() uint32 { return c.R[15] }

// SetPC sets the program counter (R15).
func (c *Core) SetPC(pc uint32) { c.R[15] = pc }

// Reset re-initializes the core to the ARM architectural reset state.
func (c *Core) Reset(pc uint32) {
	c.R = [16]uint32{}
	c.R[15] = pc
	c.CPSR = uint32(ModeSVC) | cpsrI | cpsrF
	c.irqPending = false
	c.fiqPending = false
	c.Halted = false
}

// RaiseIRQ implements soc/int9.Line: the rising edge of int9's OR-of-AND
// line. Delivery itself happens on the next Step, matching real ARM
// interrupt sampling (taken between instructions, not mid-execution).
func (c *Core) RaiseIRQ() {
	c.irqPending = true
}

// RaiseFIQ marks a pending fast interrupt, sampled the same way as IRQ.
func (c *Core) RaiseFIQ() {
	c.fiqPending = true
}

// Step delivers any pending, unmasked exception, then executes exactly one
// instruction via the injected Decoder.
func (c *Core) Step() {
	if c.Halted {
		return
	}

	switch {
	case c.fiqPending && c.CPSR&cpsrF == 0:
		c.enterException(VectorFIQ, ModeFIQ, true, true)
		c.fiqPending = false
	case c.irqPending && c.CPSR&cpsrI == 0:
		c.enterException(VectorIRQ, ModeIRQ, true, false)
		c.irqPending = false
	}

	if c.Decoder != nil {
		c.Decoder(c)
	}
}

// enterException switches mode and masks interrupts per the ARM exception
// entry sequence (ARM architecture reference manual §B1.8.1): IRQ is always
// masked on entry, FIQ only for FIQ/Reset.
func (c *Core) enterException(vector uint32, mode uint32, maskIRQ, maskFIQ bool) {
	c.CPSR = (c.CPSR &^ 0x1f) | mode
	if maskIRQ {
		c.CPSR |= cpsrI
	}
	if maskFIQ {
		c.CPSR |= cpsrF
	}
	c.R[15] = vector
}

// VectorName returns the exception vector's mnemonic, following the
// teacher's VectorName helper.
func VectorName(off uint32) string {
	switch off {
	case VectorReset:
		return "RESET"
	case VectorUndefined:
		return "UNDEFINED"
	case VectorSupervisor:
		return "SUPERVISOR"
	case VectorPrefetchAbort:
		return "PREFETCH_ABORT"
	case VectorDataAbort:
		return "DATA_ABORT"
	case VectorIRQ:
		return "IRQ"
	case VectorFIQ:
		return "FIQ"
	default:
		return fmt.Sprintf("unknown(%#x)", off)
	}
}
