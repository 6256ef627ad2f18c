package pxi

import "testing"

type fakeIRQ struct{ asserted []int }

func (f *fakeIRQ) Assert(id int) { f.asserted = append(f.asserted, id) }

func TestSendThenReceiveRoundTrip(t *testing.T) {
	irq9, irq11 := &fakeIRQ{}, &fakeIRQ{}
	e := New(irq9, irq11, 100, 101)

	e.SendToARM11(0xdeadbeef)
	if got := e.RecvFromARM9(); got != 0xdeadbeef {
		t.Fatalf("got %#x want 0xdeadbeef", got)
	}
}

func TestOverflowSetsStickyErrorAndDropsWord(t *testing.T) {
	e := New(&fakeIRQ{}, &fakeIRQ{}, 0, 0)
	for i := 0; i < fifoDepth; i++ {
		e.SendToARM11(uint32(i))
	}
	e.SendToARM11(0xffffffff) // 17th word: dropped

	st := e.StatusFor(true)
	if !st.ErrorSend {
		t.Fatal("expected sticky send-full error")
	}

	for i := 0; i < fifoDepth; i++ {
		if got := e.RecvFromARM9(); got != uint32(i) {
			t.Fatalf("word %d: got %#x", i, got)
		}
	}
}

func TestRecvIRQFiresOnlyWhenEnabled(t *testing.T) {
	irq9, irq11 := &fakeIRQ{}, &fakeIRQ{}
	e := New(irq9, irq11, 7, 8)

	e.SendToARM11(1) // ARM11's recv IRQ not yet enabled
	if len(irq11.asserted) != 0 {
		t.Fatalf("expected no IRQ before enable, got %v", irq11.asserted)
	}

	e.RecvFromARM9()
	e.EnableRecvIRQ(false, true) // ARM11 enables its own recv IRQ
	e.SendToARM11(2)
	if len(irq11.asserted) != 1 || irq11.asserted[0] != 8 {
		t.Fatalf("expected IRQ 8 once, got %v", irq11.asserted)
	}
}

func TestAckErrorsClearsLatch(t *testing.T) {
	e := New(&fakeIRQ{}, &fakeIRQ{}, 0, 0)
	for i := 0; i < fifoDepth+1; i++ {
		e.SendToARM11(uint32(i))
	}
	e.AckErrors(true)
	if e.StatusFor(true).ErrorSend {
		t.Fatal("expected error latch cleared")
	}
}
