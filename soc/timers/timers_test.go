package timers

import "testing"

type fakeIRQ struct {
	asserted []int
}

func (f *fakeIRQ) Assert(id int) { f.asserted = append(f.asserted, id) }

func TestARM9CountupChaining(t *testing.T) {
	irq := &fakeIRQ{}
	tm := NewARM9Timers(irq)

	// timer 0: no prescale, reload near overflow
	tm.Configure(0, 0xfffe, 0, false, false, true)
	// timer 1: countup with reload 0xffff, so the single carry from timer 0
	// overflows it straight back to its reload value
	tm.Configure(1, 0xffff, 0, true, true, true)

	tm.Tick(1) // 0xfffe -> 0xffff
	tm.Tick(1) // 0xffff -> overflow -> reload, carry into timer 1

	if tm.Value(0) != 0xfffe {
		t.Fatalf("timer 0 should have reloaded, got %#x", tm.Value(0))
	}
	if tm.Value(1) != 0xffff {
		t.Fatalf("timer 1 should have received exactly one carry tick and overflowed to reload, got %#x", tm.Value(1))
	}
	if len(irq.asserted) != 1 || irq.asserted[0] != 1 {
		t.Fatalf("expected exactly one IRQ on timer 1 overflow, got %v", irq.asserted)
	}
}

func TestARM9Prescaler(t *testing.T) {
	irq := &fakeIRQ{}
	tm := NewARM9Timers(irq)

	tm.Configure(0, 0, 1, false, false, true) // prescale index 1 == /64

	tm.Tick(63)
	if tm.Value(0) != 0 {
		t.Fatalf("63 cycles at /64 should not yet tick, got %#x", tm.Value(0))
	}

	tm.Tick(1)
	if tm.Value(0) != 1 {
		t.Fatalf("64th cycle should tick once, got %#x", tm.Value(0))
	}
}

func TestWiFiTimerAutoRestart(t *testing.T) {
	irq := &fakeIRQ{}
	wt := NewWiFiTimers(irq, [5]int{10, 11, 12, 13, 14})

	wt.WriteControl(0, (5<<wifiTargetShift)|wifiCtlEnable|wifiCtlAuto)
	wt.Tick(5)

	if wt.ReadIntStatus()&1 == 0 {
		t.Fatal("expected timer 0 overflow bit latched")
	}
	if len(irq.asserted) != 1 || irq.asserted[0] != 10 {
		t.Fatalf("expected IRQ 10 once, got %v", irq.asserted)
	}
	if wt.ReadControl(0)&wifiCtlEnable == 0 {
		t.Fatal("auto-restart timer should stay enabled after overflow")
	}

	wt.AckIntStatus(1)
	if wt.ReadIntStatus()&1 != 0 {
		t.Fatal("ack should clear the latched bit")
	}
}
