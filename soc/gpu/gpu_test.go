package gpu

import "testing"

// fakeMem is a byte-addressable RAM stub implementing both Bus and
// WriteBus, mirroring the fakeHost pattern used across soc/*_test.go.
type fakeMem struct {
	data map[uint32]byte
}

func newFakeMem() *fakeMem { return &fakeMem{data: make(map[uint32]byte)} }

func (m *fakeMem) Read8(addr uint32) uint8 { return m.data[addr] }

func (m *fakeMem) Write32(addr uint32, val uint32) {
	m.data[addr] = byte(val)
	m.data[addr+1] = byte(val >> 8)
	m.data[addr+2] = byte(val >> 16)
	m.data[addr+3] = byte(val >> 24)
}

func TestToImageBGRA32(t *testing.T) {
	mem := newFakeMem()
	// one BGRA32 pixel: B=0x10 G=0x20 R=0x30 A=0x40
	mem.data[0] = 0x10
	mem.data[1] = 0x20
	mem.data[2] = 0x30
	mem.data[3] = 0x40

	s := &Screen{Width: 1, Height: 1, Format: FormatBGRA32, ActiveA: true, AddrA: 0}
	img := s.ToImage(mem)

	px := img.NRGBAAt(0, 0) // straight (non-premultiplied) channels
	if px.R != 0x30 || px.G != 0x20 || px.B != 0x10 || px.A != 0x40 {
		t.Fatalf("got rgba %x %x %x %x", px.R, px.G, px.B, px.A)
	}
}

func TestToImageBGR24HasOpaqueAlpha(t *testing.T) {
	mem := newFakeMem()
	mem.data[0] = 0x01
	mem.data[1] = 0x02
	mem.data[2] = 0x03

	s := &Screen{Width: 1, Height: 1, Format: FormatBGR24, ActiveA: true, AddrA: 0}
	img := s.ToImage(mem)

	_, _, _, a := img.At(0, 0).RGBA()
	if a>>8 != 0xff {
		t.Fatalf("expected fully opaque pixel for BGR24, got alpha %x", a>>8)
	}
}

func TestToImageUsesBufferBWhenSelected(t *testing.T) {
	mem := newFakeMem()
	mem.Write32(0x1000, 0xAABBCCDD) // buffer B pixel: bytes DD CC BB AA = B G R A

	s := &Screen{Width: 1, Height: 1, Format: FormatBGRA32, ActiveA: false, AddrA: 0, AddrB: 0x1000}
	img := s.ToImage(mem)

	px := img.NRGBAAt(0, 0)
	if px.R != 0xBB || px.G != 0xCC || px.B != 0xDD {
		t.Fatalf("expected buffer B's pixel, got %x %x %x", px.R, px.G, px.B)
	}
}

func TestMemFillRunRespectsExclusiveEndBound(t *testing.T) {
	mem := newFakeMem()
	m := &MemFill{Start: 0, End: 8, Value: 0x11111111}
	m.Run(mem)

	if !m.Done || m.Busy {
		t.Fatalf("expected Done=true Busy=false after Run, got Done=%v Busy=%v", m.Done, m.Busy)
	}
	if _, wrote := mem.data[8]; wrote {
		t.Fatal("fill wrote at the exclusive end bound")
	}
	if mem.data[0] != 0x11 || mem.data[4] != 0x11 {
		t.Fatal("fill did not write the expected words within [Start, End)")
	}
}

func TestMemFillEmptyRangeCompletesImmediately(t *testing.T) {
	m := &MemFill{Start: 4, End: 4, Value: 0xff}
	m.Run(newFakeMem())
	if !m.Done {
		t.Fatal("expected an empty range to still mark Done")
	}
}
