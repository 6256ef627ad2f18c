// Package rsa implements the RSA-2048 modexp block of SPEC_FULL §3/§4.10:
// four keyslots holding a modulus and exponent, and a single modular
// exponentiation performed via math/big, the sanctioned big-integer
// kernel spec.md designates for this component (the same kernel the AES
// keyslot matrix's 128-bit keygen arithmetic uses).
package rsa

import "math/big"

const NumSlots = 4

// Slot holds one 2048-bit RSA key (only the fields a boot-time verifier
// needs: modulus and the exponent it was loaded with, public or private).
type Slot struct {
	Modulus  *big.Int
	Exponent *big.Int
}

// Engine is the RSA block: a slot matrix plus a single in-flight
// operation (real silicon supports one at a time).
type Engine struct {
	Slots [NumSlots]Slot

	CurrentSlot int
	input       []byte // accumulated big-endian input, MSB first
	Output      []byte // big-endian result, zero-padded to modulus size

	IRQ func()
}

// LoadInput appends word-sized (4-byte), big-endian chunks to the pending
// input message.
func (e *Engine) LoadInput(word uint32) {
	e.input = append(e.input, byte(word>>24), byte(word>>16), byte(word>>8), byte(word))
}

// ClearInput discards any accumulated input without running an operation.
func (e *Engine) ClearInput() { e.input = nil }

// Start performs modexp(input, exponent, modulus) against the current
// slot, sized to the slot's modulus width, and raises the completion IRQ.
func (e *Engine) Start() {
	slot := e.Slots[e.CurrentSlot]
	if slot.Modulus == nil || slot.Exponent == nil {
		e.Output = nil
		return
	}

	msg := new(big.Int).SetBytes(e.input)
	result := new(big.Int).Exp(msg, slot.Exponent, slot.Modulus)

	size := (slot.Modulus.BitLen() + 7) / 8
	out := make([]byte, size)
	result.FillBytes(out)
	e.Output = out

	e.input = nil

	if e.IRQ != nil {
		e.IRQ()
	}
}

// ReadOutputWord pops the next big-endian word of Output, MSB-first, or 0
// once exhausted.
func (e *Engine) ReadOutputWord() uint32 {
	if len(e.Output) < 4 {
		return 0
	}
	v := uint32(e.Output[0])<<24 | uint32(e.Output[1])<<16 | uint32(e.Output[2])<<8 | uint32(e.Output[3])
	e.Output = e.Output[4:]
	return v
}
