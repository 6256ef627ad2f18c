package spi

import "github.com/nine11/lle3ds/soc/cartridge"

// CardConn adapts a cartridge.SPICard (a byte-at-a-time Clock interface)
// into a conn.Conn, so the save chip attaches to a Bus the same way the
// CODEC and touchscreen devices do. Each Tx is one chip-select period: the
// card is selected before the first byte and deselected after the last.
type CardConn struct {
	Card *cartridge.SPICard
}

func (c CardConn) Tx(w, r []byte) error {
	c.Card.Select()
	defer c.Card.Deselect()
	for i, b := range w {
		out, err := c.Card.Clock(b)
		if err != nil {
			return err
		}
		if r != nil && i < len(r) {
			r[i] = out
		}
	}
	return nil
}

// CodecDevice is a minimal stand-in for the audio CODEC: register reads
// return whatever was last written, matching the handful of registers
// boot-path code probes (volume/mute status) without modeling audio
// output.
type CodecDevice struct {
	regs [256]byte
}

func (d *CodecDevice) Tx(w, r []byte) error {
	if len(w) == 0 {
		return nil
	}
	reg := w[0]
	if len(w) > 1 {
		for i, b := range w[1:] {
			d.regs[int(reg)+i] = b
		}
		return nil
	}
	for i := range r {
		r[i] = d.regs[int(reg)+i]
	}
	return nil
}

// TouchscreenDevice reports a fixed "not pressed" sample; boot-time code
// only needs the controller to respond, not a real touch event stream.
type TouchscreenDevice struct{}

func (TouchscreenDevice) Tx(w, r []byte) error {
	for i := range r {
		r[i] = 0
	}
	return nil
}
