// Package cpu11 models the ARM11 MPCore cluster's per-core exception
// contract: 4 symmetric cores, each with the same reset/IRQ-entry shape as
// cpu9.Core, grouped under one Cluster so soc/gic's 4-core PMR has a single
// handle to deliver edges to (spec.md's "GIC-style core-targeted
// interrupt" model, §4.3).
//
// Grounded the same way as cpu9 (teacher's arm/exception.go vector table,
// ARM architecture CPSR mode encodings), generalized from one core to a
// fixed-size array of cores.
package cpu11

import "fmt"

const NumCores = 4

// Exception vectors, ARMv6/v7 layout (same offsets as cpu9; the MPCore's
// vector table is classic ARM like the ARM9's).
const (
	VectorReset         = 0x00
	VectorUndefined     = 0x04
	VectorSupervisor    = 0x08
	VectorPrefetchAbort = 0x0c
	VectorDataAbort     = 0x10
	VectorIRQ           = 0x18
	VectorFIQ           = 0x1c
)

const (
	ModeSVC = 0x13
	ModeIRQ = 0x12
	ModeFIQ = 0x11
)

const (
	cpsrI = 1 << 7
	cpsrF = 1 << 6
)

// Bus is the shared address space all 4 cores execute against.
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, val uint8)
	Write16(addr uint32, val uint16)
	Write32(addr uint32, val uint32)
}

// Decoder executes one instruction on behalf of one core.
type Decoder func(core *Core)

// Core is one ARM11 core's architectural state.
type Core struct {
	R    [16]uint32
	CPSR uint32

	Bus     Bus
	Decoder Decoder

	irqPending bool
	fiqPending bool

	Halted bool
}

func (c *Core) reset(pc uint32) {
	c.R = [16]uint32{}
	c.R[15] = pc
	c.CPSR = uint32(ModeSVC) | cpsrI | cpsrF
	c.irqPending = false
	c.fiqPending = false
	c.Halted = true // MPCore secondary cores park until woken, core 0 unparked below
}

// PC returns core's program counter.
func (c *Core) PC() uint32 { return c.R[15] }

func (c *Core) enterException(vector, mode uint32, maskIRQ, maskFIQ bool) {
	c.CPSR = (c.CPSR &^ 0x1f) | mode
	if maskIRQ {
		c.CPSR |= cpsrI
	}
	if maskFIQ {
		c.CPSR |= cpsrF
	}
	c.R[15] = vector
}

// Step delivers a pending unmasked exception, then runs one Decoder call.
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

// Cluster holds the 4 ARM11 cores and implements soc/gic.Line, giving the
// PMR a single handle to target any one of them by index.
type Cluster struct {
	Cores [NumCores]Core
}

// New returns a cluster reset per the 3DS boot sequence: core 0 running
// from bootPC, cores 1-3 parked (spec.md §4.3's "secondary cores wait for
// an SGI wakeup" note).
//
// busFor is called once per core to obtain that core's view of the address
// space: shared memory devices resolve identically for every core, but the
// GIC CPU interface and private timer/watchdog block are banked per core at
// the same physical address, so each core needs its own Bus instance to
// see its own bank.
func New(busFor func(core int) Bus, bootPC uint32) *Cluster {
	cl := &Cluster{}
	for i := range cl.Cores {
		cl.Cores[i].Bus = busFor(i)
		cl.Cores[i].reset(bootPC)
	}
	cl.Cores[0].Halted = false
	return cl
}

// RaiseIRQ implements soc/gic.Line: deliver an edge to core's IRQ input.
func (cl *Cluster) RaiseIRQ(core int) {
	cl.Cores[core].irqPending = true
}

// WakeCore un-halts core, used when an SGI targets a parked secondary core.
func (cl *Cluster) WakeCore(core int) {
	cl.Cores[core].Halted = false
}

// Step advances every non-halted core by one instruction, in ascending
// core-id order.
func (cl *Cluster) Step() {
	for i := range cl.Cores {
		cl.Cores[i].Step()
	}
}

// VectorName returns the exception vector's mnemonic.
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
