package dma330

import "testing"

type fakeHost struct {
	mem  map[uint32]uint32
	ints []int
}

func newFakeHost() *fakeHost { return &fakeHost{mem: make(map[uint32]uint32)} }

func (h *fakeHost) Read8(addr uint32) uint8 {
	word := h.mem[addr&^3]
	return uint8(word >> (8 * (addr & 3)))
}

func (h *fakeHost) Read32(addr uint32) uint32 {
	return uint32(h.Read8(addr)) | uint32(h.Read8(addr+1))<<8 |
		uint32(h.Read8(addr+2))<<16 | uint32(h.Read8(addr+3))<<24
}

func (h *fakeHost) Write32(addr uint32, v uint32) { h.mem[addr] = v }
func (h *fakeHost) Interrupt(ev int)              { h.ints = append(h.ints, ev) }

func put8(mem map[uint32]uint32, base uint32, bytes ...byte) uint32 {
	addr := base
	for _, b := range bytes {
		word := mem[addr&^3]
		shift := 8 * (addr & 3)
		word = (word &^ (0xff << shift)) | uint32(b)<<shift
		mem[addr&^3] = word
		addr++
	}
	return addr
}

func le32(v uint32) [4]byte {
	return [4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestMovLdStEnd(t *testing.T) {
	h := newFakeHost()
	h.mem[0x2000] = 0xdeadbeef

	prog := uint32(0x1000)
	b := le32(0x3000) // DAR value
	a := le32(0x2000) // SAR value

	addr := prog
	addr = put8(h.mem, addr, OpMovSAR, a[0], a[1], a[2], a[3])
	addr = put8(h.mem, addr, OpMovDAR, b[0], b[1], b[2], b[3])
	addr = put8(h.mem, addr, OpMovCCR, 0, 0, 0, 0) // burst len 1, size 1 byte-shift->1
	addr = put8(h.mem, addr, OpLD, 0x01)           // single load
	addr = put8(h.mem, addr, OpST, 0x01)           // single store
	_ = put8(h.mem, addr, OpEnd)

	e := New(h)
	e.Go(0, prog)

	for i := 0; i < 10 && e.Channels[0].State == Exec; i++ {
		e.Step()
	}

	if e.Channels[0].State != Stop {
		t.Fatalf("channel should have reached STOP, got %s", e.Channels[0].State)
	}
	if h.mem[0x3000] != 0xdeadbeef {
		t.Fatalf("expected word copied to dest, got %#x", h.mem[0x3000])
	}
}

func TestLoopRunsExactIterationCount(t *testing.T) {
	h := newFakeHost()
	prog := uint32(0x1000)

	addr := prog
	addr = put8(h.mem, addr, OpLP, 0, 2) // 3 iterations
	loopBodyStart := addr
	addr = put8(h.mem, addr, OpNop)
	back := addr - loopBodyStart
	addr = put8(h.mem, addr, OpLPEnd, 0, byte(back))
	_ = put8(h.mem, addr, OpEnd)

	e := New(h)
	e.Go(0, prog)

	steps := 0
	for e.Channels[0].State == Exec && steps < 100 {
		e.Step()
		steps++
	}

	if e.Channels[0].State != Stop {
		t.Fatalf("expected STOP, got %s after %d steps", e.Channels[0].State, steps)
	}
	// LP(3) + 3*(NOP+LPEND) + END == 8 instruction steps
	if steps != 8 {
		t.Fatalf("expected exactly 8 instruction steps for 3 loop iterations, got %d", steps)
	}
}

func TestWFPParksUntilRequested(t *testing.T) {
	h := newFakeHost()
	prog := uint32(0x1000)

	addr := prog
	addr = put8(h.mem, addr, OpWFP, 5)
	_ = put8(h.mem, addr, OpEnd)

	e := New(h)
	e.Go(0, prog)
	e.Step()

	if e.Channels[0].State != WFP {
		t.Fatalf("expected channel parked in WFP, got %s", e.Channels[0].State)
	}

	e.RequestPeripheral(5)
	if e.Channels[0].State != Exec {
		t.Fatalf("expected peripheral request to wake channel, got %s", e.Channels[0].State)
	}

	e.Step()
	if e.Channels[0].State != Stop {
		t.Fatalf("expected channel to finish after waking, got %s", e.Channels[0].State)
	}
}

func TestSevFiresInterruptOnlyWhenEnabled(t *testing.T) {
	h := newFakeHost()
	prog := uint32(0x1000)
	addr := put8(h.mem, prog, OpSEV, 3)
	_ = put8(h.mem, addr, OpEnd)

	e := New(h)
	e.Go(0, prog)
	e.Step() // SEV with event disabled: no interrupt
	if len(h.ints) != 0 {
		t.Fatalf("expected no interrupt before enabling event 3, got %v", h.ints)
	}

	e2 := New(h)
	e2.EnableEvent(0, 3, true)
	e2.Go(0, prog)
	e2.Step()
	if len(h.ints) != 1 || h.ints[0] != 3 {
		t.Fatalf("expected interrupt 3 once, got %v", h.ints)
	}
}
