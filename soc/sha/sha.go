// Package sha implements the streaming SHA-256 engine of SPEC_FULL §3/§4.9:
// a 16-word input FIFO that accumulates one 512-bit block at a time, with a
// final-round flag that triggers standard Merkle-Damgard padding and
// publishes the digest as 8 big-endian words.
//
// Grounded on the teacher's soc/imx6/dcp Hash interface (dcp/hash.go,
// dcp/sha.go): a running-digest object fed by successive Writes, finalized
// once by Sum. Unlike the DCP driver, which offloads the compression
// function to real silicon accessed over DMA, this package only simulates
// a register-level FIFO and defers the actual compression/padding to
// crypto/sha256, per spec.md's stance that the cryptographic primitive
// itself is a sanctioned black box.
package sha

import "crypto/sha256"

const blockWords = 16 // one 512-bit block

// Engine is the streaming SHA-256 block.
type Engine struct {
	hasher  hasherState
	pending []byte // bytes written since the last full block, < 64

	Digest [8]uint32 // big-endian words, valid once Final has run

	IRQ func()
}

// hasherState wraps the running crypto/sha256 state; crypto/sha256's
// hash.Hash already performs correct incremental block processing, so the
// only state this package must track on top of it is the FIFO accounting.
type hasherState struct {
	h sha256Hash
}

type sha256Hash interface {
	Write(p []byte) (int, error)
	Sum(b []byte) []byte
}

// NewEngine returns a freshly reset engine ready to start a new digest.
func NewEngine() *Engine {
	e := &Engine{}
	e.Reset()
	return e
}

// Reset starts a new digest, discarding any in-flight data.
func (e *Engine) Reset() {
	e.hasher.h = sha256.New()
	e.pending = nil
	e.Digest = [8]uint32{}
}

// WriteInputWord appends one big-endian 32-bit word (the wire order
// SHA-256 operates on) to the pending block, flushing a full 64-byte block
// to the running hash once 16 words have accumulated.
func (e *Engine) WriteInputWord(val uint32) {
	e.pending = append(e.pending,
		byte(val>>24), byte(val>>16), byte(val>>8), byte(val))

	if len(e.pending) >= blockWords*4 {
		e.hasher.h.Write(e.pending[:blockWords*4])
		e.pending = e.pending[blockWords*4:]
	}
}

// Final flushes any remaining partial block (crypto/sha256 applies the
// standard length-padding internally) and publishes the digest, then
// fires the completion IRQ.
func (e *Engine) Final() {
	if len(e.pending) > 0 {
		e.hasher.h.Write(e.pending)
		e.pending = nil
	}

	sum := e.hasher.h.Sum(nil)
	for i := 0; i < 8; i++ {
		e.Digest[i] = uint32(sum[i*4])<<24 | uint32(sum[i*4+1])<<16 |
			uint32(sum[i*4+2])<<8 | uint32(sum[i*4+3])
	}

	if e.IRQ != nil {
		e.IRQ()
	}
}
