package wifi

import (
	"testing"

	"github.com/nine11/lle3ds/soc/wifi/bmi"
)

func TestWindowRegistersRoundTrip(t *testing.T) {
	c := NewController(nil, nil)

	c.CMD52(FuncCommon, regWindowWriteAddr, true, 0x34)
	c.CMD52(FuncCommon, regWindowWriteAddr+1, true, 0x12)
	c.CMD52(FuncCommon, regWindowWriteAddr+2, true, 0x00)

	if c.window != 0x1234 {
		t.Fatalf("got window %#x want 0x1234", c.window)
	}
}

func TestBMIFrameDeliveredThroughMailbox(t *testing.T) {
	target := &bmi.Target{RAM: make([]byte, 64)}
	c := NewController(nil, target)

	req := bmi.Request{Cmd: bmi.CmdGetTargetInfo}
	wire, _ := bmi.Encode(req)

	for _, b := range wire {
		c.CMD52(FuncWLAN, 0, true, b)
	}

	if c.Mailboxes.ToHost[0].Len() == 0 {
		t.Fatal("expected a response queued in the host-bound mailbox")
	}
	if !c.f1IRQ {
		t.Fatal("expected function-1 IRQ pending after a BMI reply")
	}
}

func TestCardIRQGatedByFunc0Mask(t *testing.T) {
	target := &bmi.Target{RAM: make([]byte, 64)}
	c := NewController(nil, target)

	req := bmi.Request{Cmd: bmi.CmdDone}
	wire, _ := bmi.Encode(req)
	for _, b := range wire {
		c.CMD52(FuncWLAN, 0, true, b)
	}

	if c.CMD52(FuncCommon, regF0IntrPend, false, 0) != 0 {
		t.Fatal("expected masked interrupt to read as pending=0")
	}

	c.CMD52(FuncCommon, regF0IntrEnable, true, 1)
	if c.CMD52(FuncCommon, regF0IntrPend, false, 0) != 1 {
		t.Fatal("expected interrupt visible once function-0 mask enabled")
	}
}
