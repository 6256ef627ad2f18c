package ndma

import "testing"

type fakeBus struct {
	mem map[uint32]uint32
}

func newFakeBus() *fakeBus { return &fakeBus{mem: make(map[uint32]uint32)} }

func (b *fakeBus) Read32(addr uint32) uint32  { return b.mem[addr] }
func (b *fakeBus) Write32(addr uint32, v uint32) { b.mem[addr] = v }

type fakeIRQ struct{ count int }

func (f *fakeIRQ) Assert(int) { f.count++ }

type orderIRQ struct{ ids []int }

func (f *orderIRQ) Assert(id int) { f.ids = append(f.ids, id) }

func TestImmediateTransferExactWordCount(t *testing.T) {
	bus := newFakeBus()
	for i := uint32(0); i < 4; i++ {
		bus.mem[0x1000+i*4] = i + 1
	}

	irq := &fakeIRQ{}
	e := New(bus, irq)

	c := &e.Channels[0]
	c.Src = 0x1000
	c.Dest = 0x2000
	c.SrcUpdate = Increment
	c.DestUpdate = Increment
	c.TransferCount = 4
	c.Immediate = true
	c.IRQEnable = true

	e.Start(0)

	for i := uint32(0); i < 4; i++ {
		if got := bus.mem[0x2000+i*4]; got != i+1 {
			t.Fatalf("word %d: got %d want %d", i, got, i+1)
		}
	}
	if irq.count != 1 {
		t.Fatalf("expected one completion IRQ, got %d", irq.count)
	}
}

func TestChainedChannelsServicedInAscendingOrder(t *testing.T) {
	bus := newFakeBus()
	irq := &orderIRQ{}
	e := New(bus, irq)

	for _, n := range []int{2, 0, 1} {
		c := &e.Channels[n]
		c.Trigger = TriggerNDMA_AES2
		c.BlockSize = 1
		c.TransferCount = 1
		c.SrcUpdate = Fixed
		c.DestUpdate = Fixed
		c.IRQEnable = true
		c.Busy = true
	}

	e.Request(TriggerNDMA_AES2)

	// completion IRQ ids are 8+channel, so ascending service order is 8, 9, 10
	if len(irq.ids) != 3 || irq.ids[0] != 8 || irq.ids[1] != 9 || irq.ids[2] != 10 {
		t.Fatalf("expected completions in channel order [8 9 10], got %v", irq.ids)
	}

	for n := 0; n < NumChannels; n++ {
		if e.Channels[n].Busy {
			t.Fatalf("channel %d should have completed its one-block transfer", n)
		}
	}
}
