package cpu11

import "testing"

type fakeBus struct{}

func (fakeBus) Read8(uint32) uint8     { return 0 }
func (fakeBus) Read16(uint32) uint16   { return 0 }
func (fakeBus) Read32(uint32) uint32   { return 0 }
func (fakeBus) Write8(uint32, uint8)   {}
func (fakeBus) Write16(uint32, uint16) {}
func (fakeBus) Write32(uint32, uint32) {}

func newTestCluster() *Cluster {
	return New(func(int) Bus { return fakeBus{} }, 0x8000)
}

func TestOnlyCoreZeroRunsAfterReset(t *testing.T) {
	cl := newTestCluster()

	if cl.Cores[0].Halted {
		t.Fatal("expected core 0 running at reset")
	}
	for i := 1; i < NumCores; i++ {
		if !cl.Cores[i].Halted {
			t.Fatalf("expected core %d parked at reset", i)
		}
	}
}

func TestWakeCoreUnparksIt(t *testing.T) {
	cl := newTestCluster()
	cl.WakeCore(2)
	if cl.Cores[2].Halted {
		t.Fatal("expected core 2 to run after WakeCore")
	}
}

func TestRaiseIRQTargetsOnlyTheNamedCore(t *testing.T) {
	cl := newTestCluster()
	cl.Cores[0].CPSR &^= cpsrI
	cl.WakeCore(1)
	cl.Cores[1].CPSR &^= cpsrI

	cl.RaiseIRQ(1)
	cl.Step()

	if cl.Cores[0].PC() == VectorIRQ {
		t.Fatal("core 0 should not have taken an interrupt targeted at core 1")
	}
	if cl.Cores[1].PC() != VectorIRQ {
		t.Fatalf("got core 1 PC %#x, want IRQ vector", cl.Cores[1].PC())
	}
}

func TestStepSkipsHaltedCores(t *testing.T) {
	cl := newTestCluster()
	ran := [NumCores]bool{}
	for i := range cl.Cores {
		i := i
		cl.Cores[i].Decoder = func(*Core) { ran[i] = true }
	}

	cl.Step()

	if !ran[0] {
		t.Fatal("expected core 0 to step")
	}
	for i := 1; i < NumCores; i++ {
		if ran[i] {
			t.Fatalf("expected parked core %d to not step", i)
		}
	}
}
