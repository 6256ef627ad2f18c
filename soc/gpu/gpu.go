// Package gpu implements the scanout front-end of SPEC_FULL §3/§4.17: two
// framebuffer descriptors (top and bottom screens), each double-buffered
// (address A/B) and configurable between BGRA32 and BGR24 pixel formats,
// plus two memfill blitter channels with exclusive upper-bound semantics.
//
// Grounded on the bus/device shape used throughout this tree (plain
// struct, register-level Read/Write methods, no back-pointer to an
// owning emulator); pixel-format conversion to a displayable image.Image
// is done with golang.org/x/image/draw, the pack's wired-in image
// conversion library, rather than hand-rolled per-format blit loops.
package gpu

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// ColorFormat selects a framebuffer's pixel encoding.
type ColorFormat int

const (
	FormatBGRA32 ColorFormat = iota // 4 bytes/pixel
	FormatBGR24                     // 3 bytes/pixel
)

func (f ColorFormat) bytesPerPixel() int {
	if f == FormatBGR24 {
		return 3
	}
	return 4
}

// Screen is one framebuffer descriptor (top or bottom).
type Screen struct {
	Width, Height int

	AddrA, AddrB uint32
	ActiveA      bool // which of AddrA/AddrB is being scanned out

	Format ColorFormat
}

func (s *Screen) activeAddr() uint32 {
	if s.ActiveA {
		return s.AddrA
	}
	return s.AddrB
}

// Bus is the memory the screen reads pixel data from.
type Bus interface {
	Read8(addr uint32) uint8
}

// ToImage renders the screen's currently active buffer as an
// image.NRGBA, converting via golang.org/x/image/draw so BGRA32 and
// BGR24 sources share one code path.
func (s *Screen) ToImage(bus Bus) *image.NRGBA {
	src := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
	bpp := s.Format.bytesPerPixel()
	base := s.activeAddr()

	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			off := base + uint32((y*s.Width+x)*bpp)
			b := bus.Read8(off)
			g := bus.Read8(off + 1)
			r := bus.Read8(off + 2)
			a := byte(0xff)
			if bpp == 4 {
				// BGRA32 stores alpha in the 4th byte; unused by scanout
				// but preserved for completeness.
				a = bus.Read8(off + 3)
			}
			src.Set(x, y, color.NRGBA{R: r, G: g, B: b, A: a})
		}
	}

	dst := image.NewNRGBA(src.Bounds())
	draw.Copy(dst, image.Point{}, src, src.Bounds(), draw.Src, nil)
	return dst
}

// MemFill is one of the two blitter channels: fills [Start, End) of the
// destination with Value, End being an exclusive bound (spec.md §4.17).
type MemFill struct {
	Start, End uint32
	Value      uint32
	Busy       bool
	Done       bool
}

// WriteBus is the memory a fill writes into.
type WriteBus interface {
	Write32(addr uint32, val uint32)
}

// Run executes the fill synchronously across [Start, End), 4 bytes at a
// time, then raises Done (spec.md's memfill completion flag).
func (m *MemFill) Run(bus WriteBus) {
	m.Busy = true
	for addr := m.Start; addr < m.End; addr += 4 {
		bus.Write32(addr, m.Value)
	}
	m.Busy = false
	m.Done = true
}

// Engine is the GPU scanout block: two screens and two fill channels.
type Engine struct {
	Top, Bottom Screen
	Fill        [2]MemFill
}
