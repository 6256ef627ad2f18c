// Package spi implements the three-bus SPI controller of SPEC_FULL
// §3/§4.12, routing each bus's chip-select to an attached device (CODEC,
// touchscreen, the cartridge save chip on bus 2).
//
// Each device is wired in as a periph.io/x/conn/v3 conn.Conn — the pack's
// canonical shape for a point-to-point SPI transaction (google-periph's
// conn.Conn, a single Tx(w, r []byte) error method) — so any device this
// controller talks to is a drop-in conn.Conn rather than a bespoke
// interface invented for this emulator.
package spi

import "periph.io/x/conn/v3"

const NumBuses = 3

// Device selects which chip-select line on a bus is currently asserted;
// devices register themselves under a device id (spec.md §4.12's
// CODEC/touchscreen/NVRAM slots).
type Device struct {
	ID   int
	Conn conn.Conn
}

// Bus is one SPI bus: a set of addressable devices and which one (if any)
// currently has chip-select asserted.
type Bus struct {
	Devices  map[int]conn.Conn
	selected int
	active   bool
}

// NewBus returns an empty bus with no devices attached.
func NewBus() *Bus {
	return &Bus{Devices: make(map[int]conn.Conn)}
}

// Attach wires dev onto the bus under id.
func (b *Bus) Attach(id int, dev conn.Conn) {
	b.Devices[id] = dev
}

// Select asserts chip-select for device id (spec.md §4.12's CS field); a
// bus can only have one device selected at a time, consistent with real
// SPI wiring.
func (b *Bus) Select(id int) {
	b.selected = id
	b.active = true
}

// Deselect releases chip-select.
func (b *Bus) Deselect() {
	b.active = false
}

// Tx runs a full-duplex transaction against whichever device is currently
// selected; it is a no-op if no device is selected or attached.
func (b *Bus) Tx(w, r []byte) error {
	if !b.active {
		return nil
	}
	dev, ok := b.Devices[b.selected]
	if !ok {
		return nil
	}
	return dev.Tx(w, r)
}

// Controller is the three-bus SPI block.
type Controller struct {
	Buses [NumBuses]*Bus
}

// NewController returns a controller with three empty buses.
func NewController() *Controller {
	c := &Controller{}
	for i := range c.Buses {
		c.Buses[i] = NewBus()
	}
	return c
}
