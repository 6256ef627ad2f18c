package spi

import (
	"testing"

	"github.com/nine11/lle3ds/soc/cartridge"
)

func TestBusRoutesToSelectedDevice(t *testing.T) {
	b := NewBus()
	codec := &CodecDevice{}
	b.Attach(0, codec)
	b.Attach(1, TouchscreenDevice{})

	b.Select(0)
	if err := b.Tx([]byte{5, 0x42}, nil); err != nil {
		t.Fatal(err)
	}

	out := make([]byte, 1)
	b.Tx([]byte{5}, out)
	if out[0] != 0x42 {
		t.Fatalf("expected codec register 5 to read back 0x42, got %#x", out[0])
	}
}

func TestDeselectedBusIsNoOp(t *testing.T) {
	b := NewBus()
	b.Attach(0, &CodecDevice{})
	// never selected
	if err := b.Tx([]byte{1, 2}, nil); err != nil {
		t.Fatal(err)
	}
}

func TestCardConnAdaptsSPICard(t *testing.T) {
	card := cartridge.NewSPICard(nil)
	conn := CardConn{Card: card}

	if err := conn.Tx([]byte{cartridge.SPICmdWriteEnable}, nil); err != nil {
		t.Fatal(err)
	}
}
