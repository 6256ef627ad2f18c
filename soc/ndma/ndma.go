// Package ndma implements the 8-channel "normal" DMA engine of SPEC_FULL
// §3/§4.5: a trigger-driven word copier with per-channel reload/repeat,
// mapped at 0x10002000-0x10002FFF.
//
// Adapted from the teacher's dma package in spirit (Region.Alloc/Read/Write
// move bytes between a flat address and a Go []byte), but NDMA moves words
// directly between two bus-resident addresses rather than to/from a
// pre-allocated scratch buffer, so it talks straight to the Bus interface
// below instead of dma.Region.
package ndma

const NumChannels = 8

// Bus is the subset of bus.Bus that NDMA needs to move words between
// arbitrary physical addresses.
type Bus interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, val uint32)
}

// IRQ raises interrupt NDMA0+channel on completion.
type IRQ interface {
	Assert(id int)
}

// UpdateMode selects how a channel's working address advances after each
// word.
type UpdateMode int

const (
	Increment UpdateMode = iota
	Decrement
	Fixed
	Fill
)

// Trigger enumerates the 16 logical request sources a channel can arm
// against (spec.md §3).
type Trigger int

const (
	TriggerImmediate Trigger = iota
	TriggerTimer0
	TriggerTimer1
	TriggerTimer2
	TriggerTimer3
	TriggerCard0
	TriggerCard1
	TriggerGPIO
	TriggerDSP
	TriggerCamera
	TriggerXDMA9
	TriggerNDMA_MMC1
	TriggerNDMA_AES2
	TriggerNDMA_AES1
	TriggerSPI1
	TriggerSPI2
)

// Channel is one NDMA channel's register set.
type Channel struct {
	Src, Dest uint32

	TransferCount uint32
	BlockSize     uint32

	SrcUpdate, DestUpdate UpdateMode

	ReloadSrc, ReloadDest bool
	Repeat                bool
	Immediate             bool

	IRQEnable bool
	Trigger   Trigger

	Busy bool

	shadowSrc, shadowDest uint32
}

// Engine is the 8-channel NDMA controller.
type Engine struct {
	Channels [NumChannels]Channel

	irq IRQ
	bus Bus

	// requestBits mirrors a logical trigger being asserted this tick.
	requestBits map[Trigger]bool
}

// New returns a reset engine wired to bus and irq.
func New(bus Bus, irq IRQ) *Engine {
	return &Engine{bus: bus, irq: irq, requestBits: make(map[Trigger]bool)}
}

func advance(addr uint32, mode UpdateMode, step uint32) uint32 {
	switch mode {
	case Increment:
		return addr + step
	case Decrement:
		return addr - step
	default: // Fixed, Fill
		return addr
	}
}

// Start arms channel n; in immediate mode the whole transfer runs to
// completion synchronously, copying TransferCount words with each side's
// update policy. BlockSize is not used in immediate mode.
func (e *Engine) Start(n int) {
	c := &e.Channels[n]
	c.Busy = true
	c.shadowSrc = c.Src
	c.shadowDest = c.Dest

	if c.Immediate {
		e.copyWords(c, c.TransferCount)
		c.Busy = false
		e.complete(n, c)
	}
}

func (e *Engine) copyWords(c *Channel, count uint32) {
	for i := uint32(0); i < count; i++ {
		val := e.bus.Read32(c.shadowSrc)
		e.bus.Write32(c.shadowDest, val)

		c.shadowSrc = advance(c.shadowSrc, c.SrcUpdate, 4)
		c.shadowDest = advance(c.shadowDest, c.DestUpdate, 4)
	}
}

func (e *Engine) complete(n int, c *Channel) {
	if c.ReloadSrc {
		c.shadowSrc = c.Src
	}
	if c.ReloadDest {
		c.shadowDest = c.Dest
	}
	if c.IRQEnable && e.irq != nil {
		e.irq.Assert(8 + n) // NDMA IRQ ids follow the timer block
	}
}

// Request marks a logical trigger source active for this tick; the engine
// services every armed, non-immediate channel listening to it once, in
// ascending channel-id order, per spec.md §4.5's chained-run rule.
func (e *Engine) Request(t Trigger) {
	for n := 0; n < NumChannels; n++ {
		c := &e.Channels[n]

		if !c.Busy || c.Immediate || c.Trigger != t {
			continue
		}

		e.copyWords(c, c.BlockSize)

		if c.TransferCount <= c.BlockSize {
			c.TransferCount = 0
			c.Busy = false
			e.complete(n, c)

			if c.Repeat {
				c.Busy = true
				c.TransferCount = c.BlockSize
			}
		} else {
			c.TransferCount -= c.BlockSize
		}
	}
}
