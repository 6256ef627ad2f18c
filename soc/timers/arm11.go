package timers

// ARM11 MPCore private timer/watchdog block, mapped at 0x17E00000's PMR
// extension in the real SoC; this emulator exposes one private timer and
// four watchdogs, one set per core, as spec.md §4.4 describes ("behave the
// same way with a per-core IRQ").

type downCounter struct {
	load    uint32
	value   uint32
	prescale uint8
	autoReload bool
	irqEn   bool
	enabled bool
}

func (c *downCounter) tick(cycles uint32, irq func()) {
	if !c.enabled {
		return
	}

	div := uint32(c.prescale) + 1
	dec := cycles / div

	for i := uint32(0); i < dec; i++ {
		if c.value == 0 {
			if c.autoReload {
				c.value = c.load
			} else {
				c.enabled = false
			}

			if c.irqEn && irq != nil {
				irq()
			}

			if !c.enabled {
				break
			}
		} else {
			c.value--
		}
	}
}

// PrivateTimer is one ARM11 core's private down-counting timer.
type PrivateTimer struct {
	counter downCounter
	irq     IRQ
	irqID   int
}

// NewPrivateTimer returns a reset private timer for one core, raising irqID
// on irq when it expires.
func NewPrivateTimer(irq IRQ, irqID int) *PrivateTimer {
	return &PrivateTimer{irq: irq, irqID: irqID}
}

// Configure loads the counter and control bits.
func (p *PrivateTimer) Configure(load uint32, prescale uint8, autoReload, irqEn, enabled bool) {
	p.counter.load = load
	p.counter.prescale = prescale
	p.counter.autoReload = autoReload
	p.counter.irqEn = irqEn

	if enabled && !p.counter.enabled {
		p.counter.value = load
	}
	p.counter.enabled = enabled
}

// Value returns the live counter value.
func (p *PrivateTimer) Value() uint32 { return p.counter.value }

// Tick advances the timer by cycles core clocks.
func (p *PrivateTimer) Tick(cycles uint32) {
	p.counter.tick(cycles, func() {
		if p.irq != nil {
			p.irq.Assert(p.irqID)
		}
	})
}

// Watchdog is one ARM11 core's private watchdog timer, architecturally
// identical to PrivateTimer (same down-counter, same reload behavior) but
// with its own register window and IRQ id per spec.md §4.4.
type Watchdog struct {
	counter downCounter
	irq     IRQ
	irqID   int
}

// NewWatchdog returns a reset watchdog for one core.
func NewWatchdog(irq IRQ, irqID int) *Watchdog {
	return &Watchdog{irq: irq, irqID: irqID}
}

// Configure loads the counter and control bits.
func (w *Watchdog) Configure(load uint32, prescale uint8, autoReload, irqEn, enabled bool) {
	w.counter.load = load
	w.counter.prescale = prescale
	w.counter.autoReload = autoReload
	w.counter.irqEn = irqEn

	if enabled && !w.counter.enabled {
		w.counter.value = load
	}
	w.counter.enabled = enabled
}

// Value returns the live counter value.
func (w *Watchdog) Value() uint32 { return w.counter.value }

// Tick advances the watchdog by cycles core clocks.
func (w *Watchdog) Tick(cycles uint32) {
	w.counter.tick(cycles, func() {
		if w.irq != nil {
			w.irq.Assert(w.irqID)
		}
	})
}
