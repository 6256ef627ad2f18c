// Package gic implements the ARM11 MPCore private memory region (PMR):
// a 4-core Generic Interrupt Controller with per-core priority, preemption,
// and software-generated interrupts, as described in SPEC_FULL §3/§4.3.
//
// Adapted from the teacher's arm/gic/gic.go register map and Init/EOI naming
// (GICD_CTLR, GICC_IAR/EOIR, the distributor/CPU-interface split), but the
// logic itself is new: the teacher drives real GICv2 silicon through
// internal/reg, this package *is* the controller, evaluating find-highest-
// pending and preemption in Go rather than reading it back off a bus.
//
// Mapped at 0x17E00000-0x17E01FFF in the ARM11 physical address map
// (SPEC_FULL §6).
package gic

const (
	NumCores = 4
	NumInts  = 128

	SpuriousInt = 1023

	// SGIs: ids < 16. Private: 16-31, per core. Global: 32+, shared.
	numPrivate = 32
)

// Line is the per-core IRQ delivery handle.
type Line interface {
	RaiseIRQ(core int)
}

// core holds the per-CPU-interface state of SPEC_FULL §3.
type core struct {
	enabled          bool
	priorityMask     uint8 // 4 bits
	preemptionMask   uint8 // 3 bits, clamped >= 3
	highestPending   uint32
	irqCause         uint32
	curActiveIRQ     uint32
	activeLine       bool

	// private ints 16-31 priority table and per-private pending/active,
	// indexed by (id - 16).
	privPriority [16]uint8
	privPending  [16]bool
	privActive   [16]bool

	// SGIs (ids 0-15) keep a distinct pending/requester slot per core,
	// since 16 SGIs and 16 private ints both index 0-15 but are disjoint
	// interrupt ids (id<16 vs 16<=id<32).
	sgiPending   [16]bool
	sgiRequester [16]int
}

// PMR is the MPCore private memory region, holding 4 per-core interfaces
// plus the shared distributor state.
type PMR struct {
	cores [NumCores]core

	// distributor (shared) state
	pending  [NumInts]bool
	active   [NumInts]bool
	priority [NumInts]uint8        // 4 bits; used directly for global ints
	target   [NumInts]uint8        // 4-bit CPU bitmap, global ints only
	mask     [NumInts]bool         // bits 0-15 permanently set

	// CPU receives the edge for a given core id.
	CPU Line
}

// New returns a PMR reset to its initial state: bits 0-15 of mask
// permanently set (SGIs are always unmasked), preemption masks reset to
// 0x7.
func New() *PMR {
	p := &PMR{}
	p.Reset()
	return p
}

// Reset restores the invariant masked/clamped defaults.
func (p *PMR) Reset() {
	for i := range p.cores {
		p.cores[i] = core{preemptionMask: 0x7, curActiveIRQ: SpuriousInt, irqCause: SpuriousInt}
	}
	for i := 0; i < NumInts; i++ {
		p.pending[i] = false
		p.active[i] = false
		p.priority[i] = 0
		p.target[i] = 0
		p.mask[i] = i < 16
	}
}

func clampPreemption(v uint8) uint8 {
	if v < 0x3 {
		return 0x3
	}
	return v
}

// SetPreemptionMask sets core c's preemption_mask, silently clamped to >= 3
// per spec.md's boundary behavior.
func (p *PMR) SetPreemptionMask(c int, v uint8) {
	p.cores[c].preemptionMask = clampPreemption(v & 0x7)
}

// SetPriorityMask sets core c's priority_mask (4 bits).
func (p *PMR) SetPriorityMask(c int, v uint8) {
	p.cores[c].priorityMask = v & 0xf
	p.checkIfCanAssert(c)
}

// Enable turns interrupt delivery to core c on/off.
func (p *PMR) Enable(c int, on bool) {
	p.cores[c].enabled = on
	p.checkIfCanAssert(c)
}

// SetMask globally masks/unmasks interrupt id (bits 0-15 cannot be
// unmasked: SGIs are permanently live).
func (p *PMR) SetMask(id int, on bool) {
	if id < 16 {
		return
	}
	p.mask[id] = on
}

// SetPriority sets the priority table entry for id, on the given core for
// private ints (16-31) or globally for shared ints (32+).
func (p *PMR) SetPriority(c, id int, prio uint8) {
	if id < numPrivate {
		p.cores[c].privPriority[id-16] = prio & 0xf
	} else {
		p.priority[id] = prio & 0xf
	}
}

// SetTarget sets the 4-bit CPU target bitmap for a global interrupt.
func (p *PMR) SetTarget(id int, bitmap uint8) {
	if id >= numPrivate {
		p.target[id] = bitmap & 0xf
	}
}

func (p *PMR) priorityOf(c, id int) uint8 {
	if id < numPrivate {
		return p.cores[c].privPriority[id-16]
	}
	return p.priority[id]
}

func (p *PMR) isPendingFor(c, id int) bool {
	if id < 16 {
		return p.cores[c].sgiPending[id]
	}
	if id < numPrivate {
		return p.cores[c].privPending[id-16]
	}
	return p.pending[id] && p.target[id]&(1<<uint(c)) != 0
}

// findHighestPending implements SPEC_FULL §4.3's algorithm: scan ids
// 127->0, skip non-pending/masked, track the lowest-priority-id winner on
// ties.
func (p *PMR) findHighestPending(c int) (id int, prio uint8) {
	id = SpuriousInt
	prio = 0xff

	for i := NumInts - 1; i >= 0; i-- {
		if !p.isPendingFor(c, i) {
			continue
		}
		if !p.mask[i] {
			continue
		}

		pr := p.priorityOf(c, i)

		if pr <= prio {
			prio = pr
			id = i
		}
	}

	return
}

func cause(id, requester int) uint32 {
	if id < 16 {
		return uint32(id) | uint32(requester&0x7)<<10
	}
	return uint32(id)
}

// checkIfCanAssert implements SPEC_FULL §4.3's check_if_can_assert: caches
// the highest pending id/priority, tests it against priority_mask and the
// preemption rule versus cur_active_irq, and only asserts the IRQ line on a
// strict preemption (or no active IRQ at all).
func (p *PMR) checkIfCanAssert(c int) {
	cc := &p.cores[c]

	id, prio := p.findHighestPending(c)

	if id == SpuriousInt {
		cc.highestPending = SpuriousInt
		cc.irqCause = SpuriousInt
		return
	}

	cc.highestPending = uint32(id)

	requester := 0
	if id < 16 {
		requester = p.cores[c].sgiRequester[id]
	}
	newCause := cause(id, requester)

	if !cc.enabled || uint32(prio) >= uint32(cc.priorityMask) {
		return
	}

	activeID := cc.curActiveIRQ

	canPreempt := activeID == SpuriousInt

	if !canPreempt {
		activePrio := p.priorityOfCause(c, activeID)
		canPreempt = preempts(prio, activePrio, cc.preemptionMask)
	}

	if canPreempt {
		cc.irqCause = newCause
		if !cc.activeLine && p.CPU != nil {
			p.CPU.RaiseIRQ(c)
		}
		cc.activeLine = true
	} else {
		cc.activeLine = false
	}
}

func (p *PMR) priorityOfCause(c int, causeVal uint32) uint8 {
	id := int(causeVal & 0x3ff)
	return p.priorityOf(c, id)
}

// preempts implements the bitwise comparison rules of SPEC_FULL §4.3 step 3.
func preempts(newPrio, activePrio uint8, preemptionMask uint8) bool {
	switch preemptionMask {
	case 0x4:
		return newPrio&0b1110 < activePrio&0b1110
	case 0x5:
		return newPrio&0b1100 < activePrio&0b1100
	case 0x6:
		return newPrio&0b1000 < activePrio&0b1000
	case 0x7:
		return false
	default:
		return newPrio < activePrio
	}
}

// AssertHWIRQ marks a global hardware interrupt pending against every core
// in its target bitmap and re-evaluates each.
func (p *PMR) AssertHWIRQ(id int) {
	p.pending[id] = true

	for c := 0; c < NumCores; c++ {
		if id >= numPrivate && p.target[id]&(1<<uint(c)) == 0 {
			continue
		}
		if id >= 16 && id < numPrivate {
			p.cores[c].privPending[id-16] = true
		}
		p.checkIfCanAssert(c)
	}
}

// Assert implements the narrow IRQ interface shared with int9.Controller
// (soc/timers.IRQ, soc/ndma.IRQ, ...), forwarding to AssertHWIRQ.
func (p *PMR) Assert(id int) {
	p.AssertHWIRQ(id)
}

// SetPendingIRQ marks id pending for core against requester (used for
// private interrupts and to drive SGI delivery).
func (p *PMR) SetPendingIRQ(c, id, requester int) {
	if id < 16 {
		p.cores[c].sgiPending[id] = true
		p.cores[c].sgiRequester[id] = requester
	} else if id < numPrivate {
		p.cores[c].privPending[id-16] = true
	} else {
		p.pending[id] = true
	}
	p.checkIfCanAssert(c)
}

// SGITarget selects which cores receive a software-generated interrupt.
type SGITarget int

const (
	SGIFiltered SGITarget = iota
	SGIAllButSelf
	SGISelfOnly
)

// SendSGI dispatches a software interrupt from the requester core to the
// selected targets, per spec.md §4.3's SGI dispatch rule.
func (p *PMR) SendSGI(id, requester int, mode SGITarget, filter uint8) {
	for c := 0; c < NumCores; c++ {
		switch mode {
		case SGIAllButSelf:
			if c == requester {
				continue
			}
		case SGISelfOnly:
			if c != requester {
				continue
			}
		default:
			if filter&(1<<uint(c)) == 0 {
				continue
			}
		}

		p.SetPendingIRQ(c, id, requester)
	}
}

// Acknowledge implements the atomic read of the "running IRQ" register:
// clears the pending bit for the returned cause, activates it, and
// re-evaluates.
func (p *PMR) Acknowledge(c int) uint32 {
	cc := &p.cores[c]

	causeVal := cc.irqCause
	id := int(causeVal & 0x3ff)

	if id != SpuriousInt {
		if id < 16 {
			cc.sgiPending[id] = false
		} else if id < numPrivate {
			cc.privPending[id-16] = false
		} else {
			p.pending[id] = false
		}
	}

	cc.curActiveIRQ = causeVal
	cc.irqCause = SpuriousInt
	cc.activeLine = false

	p.checkIfCanAssert(c)

	return causeVal
}

// EndOfInterrupt implements the write to the EOI register: clears
// cur_active_irq back to spurious and re-evaluates.
func (p *PMR) EndOfInterrupt(c int) {
	p.cores[c].curActiveIRQ = SpuriousInt
	p.checkIfCanAssert(c)
}

// HighestPending returns the id cached by the last checkIfCanAssert for c,
// exposed for the highest_priority_pending register read.
func (p *PMR) HighestPending(c int) uint32 {
	return p.cores[c].highestPending
}

// CurActiveIRQ returns the core's currently active interrupt cause.
func (p *PMR) CurActiveIRQ(c int) uint32 {
	return p.cores[c].curActiveIRQ
}
