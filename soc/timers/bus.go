package timers

// ARM9 timer block register layout, 0x10003000-0x10003FFF per spec.md §6:
// 4 counters, each a 4-byte VALUE/RELOAD pair followed by a 4-byte CNT
// word, following the real Nintendo DS/3DS TMR register shape.
const (
	ARM9RegStride = 0x08

	arm9RegValue = 0x00 // read: live value; write: reload value
	arm9RegCnt   = 0x04 // bit0 enable, bit1 countup, bit2 irqEn, bits[9:8] prescale
)

// ARM9BusView adapts an ARM9Timers block into a memory-mapped device.
type ARM9BusView struct {
	T *ARM9Timers
}

func (v *ARM9BusView) Read32(addr uint32) uint32 {
	off := addr - ARM9Base
	n := int(off) / ARM9RegStride
	if n < 0 || n >= 4 {
		return 0
	}

	switch int(off) % ARM9RegStride {
	case arm9RegValue:
		return uint32(v.T.Value(n))
	case arm9RegCnt:
		c := &v.T.counters[n]
		var w uint32
		if c.enabled {
			w |= 1 << 0
		}
		if c.countup {
			w |= 1 << 1
		}
		if c.irqEn {
			w |= 1 << 2
		}
		w |= uint32(c.prescale&0x3) << 8
		return w
	default:
		return 0
	}
}

func (v *ARM9BusView) Write32(addr uint32, val uint32) {
	off := addr - ARM9Base
	n := int(off) / ARM9RegStride
	if n < 0 || n >= 4 {
		return
	}

	switch int(off) % ARM9RegStride {
	case arm9RegValue:
		v.T.counters[n].reload = uint16(val)
	case arm9RegCnt:
		reload := v.T.counters[n].reload
		v.T.Configure(n, reload, uint8((val>>8)&0x3), val&(1<<1) != 0, val&(1<<2) != 0, val&(1<<0) != 0)
	}
}

func (v *ARM9BusView) Read8(addr uint32) uint8         { return uint8(v.Read32(addr &^ 3)) }
func (v *ARM9BusView) Read16(addr uint32) uint16       { return uint16(v.Read32(addr &^ 3)) }
func (v *ARM9BusView) Write8(addr uint32, val uint8)   { v.Write32(addr&^3, uint32(val)) }
func (v *ARM9BusView) Write16(addr uint32, val uint16) { v.Write32(addr&^3, uint32(val)) }

// ARM11 private timer/watchdog block: offsets 0x600 (timer load), 0x604
// (timer value), 0x608 (timer ctrl) and 0x620/0x624/0x628 for the watchdog,
// relative to the PMR base, following the real ARM11 MPCore private memory
// region layout (ARM MPCore TRM §3.1) — per-core banked, so each core's
// view carries its own Base the way soc/gic.CoreView does.
const (
	privTimerLoad  = 0x600
	privTimerValue = 0x604
	privTimerCtrl  = 0x608
	privWdogLoad   = 0x620
	privWdogValue  = 0x624
	privWdogCtrl   = 0x628
)

// ARM11CoreView adapts one core's PrivateTimer and Watchdog into the
// shared PMR-region bus decode.
type ARM11CoreView struct {
	Base    uint32
	Timer   *PrivateTimer
	Watchdog *Watchdog

	timerLoad, wdogLoad uint32
}

func (v *ARM11CoreView) Read32(addr uint32) uint32 {
	switch addr - v.Base {
	case privTimerValue:
		return v.Timer.Value()
	case privWdogValue:
		return v.Watchdog.Value()
	default:
		return 0
	}
}

func (v *ARM11CoreView) Write32(addr uint32, val uint32) {
	switch addr - v.Base {
	case privTimerLoad:
		v.timerLoad = val
	case privTimerCtrl:
		v.Timer.Configure(v.timerLoad, uint8(val>>8), val&(1<<1) != 0, val&(1<<2) != 0, val&1 != 0)
	case privWdogLoad:
		v.wdogLoad = val
	case privWdogCtrl:
		v.Watchdog.Configure(v.wdogLoad, uint8(val>>8), val&(1<<1) != 0, val&(1<<2) != 0, val&1 != 0)
	}
}

func (v *ARM11CoreView) Read8(addr uint32) uint8         { return uint8(v.Read32(addr &^ 3)) }
func (v *ARM11CoreView) Read16(addr uint32) uint16       { return uint16(v.Read32(addr &^ 3)) }
func (v *ARM11CoreView) Write8(addr uint32, val uint8)   { v.Write32(addr&^3, uint32(val)) }
func (v *ARM11CoreView) Write16(addr uint32, val uint16) { v.Write32(addr&^3, uint32(val)) }

// WiFi timer block register layout: lives in the embedded Xtensa's own
// address space (not the ARM9/ARM11 maps spec.md §6 pins down), since the
// 5 WiFi timers are only ever touched by the WLAN firmware running on the
// Xtensa core, reached the same way soc/wifi reaches the rest of that
// core's RAM/register file.
const (
	WiFiBase = 0x00050000

	wifiRegStride = 0x08
	wifiRegCtrl   = 0x00
	wifiRegValue  = 0x04
)

// WiFiBusView adapts a WiFiTimers block into the Xtensa core's bus.
type WiFiBusView struct {
	T *WiFiTimers
}

func (v *WiFiBusView) Read32(addr uint32) uint32 {
	off := addr - WiFiBase
	n := int(off) / wifiRegStride
	if n < 0 || n >= 5 {
		if off == 0x28 {
			return v.T.ReadIntStatus()
		}
		return 0
	}

	switch int(off) % wifiRegStride {
	case wifiRegCtrl:
		return v.T.ReadControl(n)
	case wifiRegValue:
		return v.T.ReadCount(n)
	default:
		return 0
	}
}

func (v *WiFiBusView) Write32(addr uint32, val uint32) {
	off := addr - WiFiBase
	if off == 0x28 {
		v.T.AckIntStatus(val)
		return
	}

	n := int(off) / wifiRegStride
	if n < 0 || n >= 5 {
		return
	}
	if int(off)%wifiRegStride == wifiRegCtrl {
		v.T.WriteControl(n, val)
	}
}

func (v *WiFiBusView) Read8(addr uint32) uint8         { return uint8(v.Read32(addr &^ 3)) }
func (v *WiFiBusView) Read16(addr uint32) uint16       { return uint16(v.Read32(addr &^ 3)) }
func (v *WiFiBusView) Write8(addr uint32, val uint8)   { v.Write32(addr&^3, uint32(val)) }
func (v *WiFiBusView) Write16(addr uint32, val uint16) { v.Write32(addr&^3, uint32(val)) }
