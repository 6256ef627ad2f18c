package rsa

import (
	"math/big"
	"testing"
)

func TestModExpMatchesKnownVector(t *testing.T) {
	// tiny toy key (not 2048-bit) chosen only to make the expected value
	// hand-checkable: 3^13 mod 77 == 38 (e=13, n=77=7*11, d irrelevant here)
	var e Engine
	e.Slots[0].Modulus = big.NewInt(77)
	e.Slots[0].Exponent = big.NewInt(13)
	e.CurrentSlot = 0

	e.LoadInput(3)
	e.Start()

	want := new(big.Int).SetBytes(e.Output)
	if want.Cmp(big.NewInt(38)) != 0 {
		t.Fatalf("got %s want 38", want)
	}
}

func TestIRQFiresOnCompletion(t *testing.T) {
	fired := false
	var e Engine
	e.Slots[0].Modulus = big.NewInt(77)
	e.Slots[0].Exponent = big.NewInt(13)
	e.IRQ = func() { fired = true }

	e.LoadInput(3)
	e.Start()

	if !fired {
		t.Fatal("expected completion IRQ")
	}
}

func TestOutputSizedToModulusWidth(t *testing.T) {
	var e Engine
	mod := new(big.Int).Lsh(big.NewInt(1), 2048)
	mod.Sub(mod, big.NewInt(159)) // arbitrary 2048-bit-ish modulus
	e.Slots[0].Modulus = mod
	e.Slots[0].Exponent = big.NewInt(3)

	e.LoadInput(5)
	e.Start()

	if len(e.Output) != 256 {
		t.Fatalf("expected 256-byte output for a 2048-bit modulus, got %d", len(e.Output))
	}
}
