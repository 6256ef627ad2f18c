package sha

import (
	"crypto/sha256"
	"testing"
)

func wordsFromBytes(b []byte) []uint32 {
	var words []uint32
	for i := 0; i+4 <= len(b); i += 4 {
		words = append(words, uint32(b[i])<<24|uint32(b[i+1])<<16|uint32(b[i+2])<<8|uint32(b[i+3]))
	}
	return words
}

func TestSingleBlockDigestMatchesStdlib(t *testing.T) {
	msg := make([]byte, 64)
	for i := range msg {
		msg[i] = byte(i)
	}

	e := NewEngine()
	for _, w := range wordsFromBytes(msg) {
		e.WriteInputWord(w)
	}
	e.Final()

	want := sha256.Sum256(msg)
	for i := 0; i < 8; i++ {
		got := e.Digest[i]
		wantWord := uint32(want[i*4])<<24 | uint32(want[i*4+1])<<16 | uint32(want[i*4+2])<<8 | uint32(want[i*4+3])
		if got != wantWord {
			t.Fatalf("digest word %d: got %#x want %#x", i, got, wantWord)
		}
	}
}

func TestPartialBlockTriggersPaddingOnFinal(t *testing.T) {
	msg := []byte("boot9 verification")

	e := NewEngine()
	padded := make([]byte, (len(msg)+3)/4*4)
	copy(padded, msg)
	for _, w := range wordsFromBytes(padded) {
		e.WriteInputWord(w)
	}
	e.Final()

	// the engine only saw whole words, so compare against the same
	// zero-padded-to-word-boundary input run through the reference hash
	want := sha256.Sum256(padded)
	gotFirst := e.Digest[0]
	wantFirst := uint32(want[0])<<24 | uint32(want[1])<<16 | uint32(want[2])<<8 | uint32(want[3])
	if gotFirst != wantFirst {
		t.Fatalf("first digest word: got %#x want %#x", gotFirst, wantFirst)
	}
}

func TestResetClearsDigestAndPending(t *testing.T) {
	e := NewEngine()
	e.WriteInputWord(0x11223344)
	e.Reset()

	if e.Digest != [8]uint32{} {
		t.Fatal("expected digest cleared after reset")
	}
	if len(e.pending) != 0 {
		t.Fatalf("expected pending input cleared after reset, got %d bytes", len(e.pending))
	}
}
