package int9

import "testing"

type fakeCPU struct {
	raised int
}

func (f *fakeCPU) RaiseIRQ() { f.raised++ }

func TestLineInvariant(t *testing.T) {
	cpu := &fakeCPU{}
	c := New()
	c.CPU = cpu

	if c.Line() {
		t.Fatal("line should be low after reset")
	}

	c.WriteIE(1 << 3)
	if c.Line() {
		t.Fatal("line should stay low with no pending bits")
	}

	c.Assert(3)
	if !c.Line() {
		t.Fatal("line should be high: IE & IF != 0")
	}
	if cpu.raised != 1 {
		t.Fatalf("expected exactly one edge, got %d", cpu.raised)
	}

	// second assert of the same bit is not a new edge (already pending)
	c.Assert(3)
	if cpu.raised != 1 {
		t.Fatalf("asserting an already-pending bit must not re-edge, got %d raises", cpu.raised)
	}

	c.WriteIF(1 << 3)
	if c.Line() {
		t.Fatal("write-1-to-clear should drop the line")
	}

	c.Assert(3)
	if cpu.raised != 2 {
		t.Fatalf("expected a second edge after re-assert, got %d", cpu.raised)
	}
}

func TestUnrelatedBitDoesNotAssert(t *testing.T) {
	cpu := &fakeCPU{}
	c := New()
	c.CPU = cpu

	c.WriteIE(1 << 3)
	c.Assert(5)

	if c.Line() {
		t.Fatal("asserting a bit outside IE must not raise the line")
	}
	if cpu.raised != 0 {
		t.Fatal("no edge expected")
	}
}
