package gic

import "testing"

type fakeLine struct {
	raised []int
}

func (f *fakeLine) RaiseIRQ(core int) { f.raised = append(f.raised, core) }

func TestPriorityTieResolvesToLowerID(t *testing.T) {
	p := New()
	line := &fakeLine{}
	p.CPU = line

	p.Enable(0, true)
	p.SetPriorityMask(0, 0xf)

	p.SetPriority(0, 40, 5)
	p.SetTarget(40, 0b0001)
	p.SetPriority(0, 41, 5)
	p.SetTarget(41, 0b0001)
	p.SetMask(40, true)
	p.SetMask(41, true)

	p.AssertHWIRQ(41)
	p.AssertHWIRQ(40)

	if got := p.HighestPending(0); got != 40 {
		t.Fatalf("expected lower id 40 to win priority tie, got %d", got)
	}
}

func TestAcknowledgeClearsAndActivates(t *testing.T) {
	p := New()
	line := &fakeLine{}
	p.CPU = line

	p.Enable(0, true)
	p.SetPriorityMask(0, 0xf)
	p.SetPriority(0, 50, 1)
	p.SetTarget(50, 0b0001)
	p.SetMask(50, true)

	p.AssertHWIRQ(50)

	causeBefore := p.HighestPending(0)
	got := p.Acknowledge(0)

	if got != causeBefore {
		t.Fatalf("acknowledge must return the cached highest_priority_pending, got %#x want %#x", got, causeBefore)
	}
	if p.CurActiveIRQ(0) != causeBefore {
		t.Fatalf("cur_active_irq must equal the acknowledged cause")
	}
	if p.pending[50] {
		t.Fatal("pending bit must clear on acknowledge")
	}
}

func TestPreemptionMaskClampedToMinimum(t *testing.T) {
	p := New()
	p.SetPreemptionMask(0, 0x0)

	if p.cores[0].preemptionMask != 0x3 {
		t.Fatalf("preemption_mask < 0x3 must clamp to 0x3, got %#x", p.cores[0].preemptionMask)
	}
}

func TestSpuriousWhenNothingPending(t *testing.T) {
	p := New()
	id, _ := p.findHighestPending(0)

	if id != SpuriousInt {
		t.Fatalf("expected SPURIOUS_INT, got %d", id)
	}
}
