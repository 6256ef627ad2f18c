// Package pxi implements the inter-processor FIFO pair of SPEC_FULL
// §3/§4.13: two 16-word FIFOs (one per direction) with SYNC doorbell
// registers and a sticky error latch, connecting the ARM9 and ARM11 sides.
//
// There is no direct analogue in the pack (the teacher's boards are
// single-core), so this is built directly from spec.md §4.13's register
// table, following the bus/no-back-pointer shape the other SoC blocks in
// this tree use: each side gets its own IRQ handle rather than a pointer
// to the other side's controller.
package pxi

const fifoDepth = 16

// IRQ raises the PXI IRQ for one side (RECV-not-empty when enabled, or a
// rising SYNC bit from the partner).
type IRQ interface {
	Assert(id int)
}

// side is one direction's FIFO plus its status flags.
type side struct {
	fifo []uint32

	enableSend bool
	enableRecv bool

	sendFull  bool // sticky: set once the FIFO overflowed
	recvEmpty bool // sticky: set once an empty-FIFO pop was attempted

	irq     IRQ
	irqFull int // asserted when the partner's recv FIFO transitions not-empty
}

// Engine is the PXI block: two independent directions, ARM9->ARM11 and
// ARM11->ARM9.
type Engine struct {
	ToARM11 side // ARM9 sends, ARM11 receives
	ToARM9  side // ARM11 sends, ARM9 receives

	Sync9  uint8 // SYNC register, low byte written by ARM9, high byte by ARM11
	Sync11 uint8
}

// New returns a reset engine; irq9/irq11 fire the owning core's PXI IRQ.
func New(irq9, irq11 IRQ, irqID9, irqID11 int) *Engine {
	e := &Engine{}
	e.ToARM11.irq = irq11
	e.ToARM11.irqFull = irqID11
	e.ToARM9.irq = irq9
	e.ToARM9.irqFull = irqID9
	return e
}

// Send pushes val onto dir's FIFO, setting the sticky overflow latch (and
// dropping the word) if it is already full, per spec.md §4.13.
func (e *Engine) send(s *side, val uint32) {
	if len(s.fifo) >= fifoDepth {
		s.sendFull = true
		return
	}
	s.fifo = append(s.fifo, val)
	if s.enableRecv && len(s.fifo) == 1 && s.irq != nil {
		s.irq.Assert(s.irqFull)
	}
}

func (e *Engine) recv(s *side) uint32 {
	if len(s.fifo) == 0 {
		s.recvEmpty = true
		return 0
	}
	v := s.fifo[0]
	s.fifo = s.fifo[1:]
	return v
}

// WriteSync stores val as the calling side's SYNC byte and, for every bit
// that newly transitions 0->1, raises the other side's IRQ once — the
// SYNC doorbell spec.md §4.12 describes ("doorbell bits that, when set,
// raise a target-side IRQ once"). Reuses each side's existing IRQ handle
// rather than a separate doorbell line, the same one-IRQ-per-block shape
// soc/aes/soc/sha/soc/rsa use for their own multiple internal reasons.
func (e *Engine) WriteSync(fromARM9 bool, val uint8) {
	if fromARM9 {
		rising := val &^ e.Sync9
		e.Sync9 = val
		if rising != 0 && e.ToARM11.irq != nil {
			e.ToARM11.irq.Assert(e.ToARM11.irqFull)
		}
		return
	}

	rising := val &^ e.Sync11
	e.Sync11 = val
	if rising != 0 && e.ToARM9.irq != nil {
		e.ToARM9.irq.Assert(e.ToARM9.irqFull)
	}
}

// SendToARM11 pushes a word onto the ARM9->ARM11 FIFO.
func (e *Engine) SendToARM11(val uint32) { e.send(&e.ToARM11, val) }

// RecvFromARM9 pops a word off the ARM9->ARM11 FIFO (called from the
// ARM11 side).
func (e *Engine) RecvFromARM9() uint32 { return e.recv(&e.ToARM11) }

// SendToARM9 pushes a word onto the ARM11->ARM9 FIFO.
func (e *Engine) SendToARM9(val uint32) { e.send(&e.ToARM9, val) }

// RecvFromARM11 pops a word off the ARM11->ARM9 FIFO (called from the
// ARM9 side).
func (e *Engine) RecvFromARM11() uint32 { return e.recv(&e.ToARM9) }

// Status bits mirror the real PXI_CNT layout: send-empty, send-full,
// recv-empty, recv-full, plus the two sticky error bits (clear-on-write).
type Status struct {
	SendEmpty, SendFull bool
	RecvEmpty, RecvFull bool
	ErrorSend, ErrorRecv bool
}

// StatusFor reports send as the outgoing direction and recv as the
// incoming direction, from the given core's point of view.
func (e *Engine) StatusFor(fromARM9 bool) Status {
	var send, recv *side
	if fromARM9 {
		send, recv = &e.ToARM11, &e.ToARM9
	} else {
		send, recv = &e.ToARM9, &e.ToARM11
	}

	return Status{
		SendEmpty: len(send.fifo) == 0,
		SendFull:  len(send.fifo) >= fifoDepth,
		RecvEmpty: len(recv.fifo) == 0,
		RecvFull:  len(recv.fifo) >= fifoDepth,
		ErrorSend: send.sendFull,
		ErrorRecv: recv.recvEmpty,
	}
}

// AckErrors clears the sticky error latches for the given direction pair.
func (e *Engine) AckErrors(fromARM9 bool) {
	if fromARM9 {
		e.ToARM11.sendFull = false
		e.ToARM9.recvEmpty = false
	} else {
		e.ToARM9.sendFull = false
		e.ToARM11.recvEmpty = false
	}
}

// EnableRecvIRQ toggles whether a not-empty transition on the incoming
// FIFO raises an IRQ, from the given core's point of view.
func (e *Engine) EnableRecvIRQ(fromARM9 bool, on bool) {
	if fromARM9 {
		e.ToARM9.enableRecv = on
	} else {
		e.ToARM11.enableRecv = on
	}
}
