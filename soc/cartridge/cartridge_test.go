package cartridge

import "testing"

func TestNTRCardChipIDAndRead(t *testing.T) {
	img := make([]byte, 512)
	for i := range img {
		img[i] = byte(i)
	}
	c := NewNTRCard(img, 0x00001FC2)

	if err := c.Execute(NTRCmdChipID, 4); err != nil {
		t.Fatal(err)
	}
	if got := c.ReadFIFO8(); got != 0xC2 {
		t.Fatalf("expected low chip id byte 0xc2, got %#x", got)
	}

	c.SetAddress(0x10)
	if err := c.Execute(NTRCmdReadROM, 4); err != nil {
		t.Fatal(err)
	}
	if got := c.ReadFIFO8(); got != 0x10 {
		t.Fatalf("expected byte at offset 0x10, got %#x", got)
	}
}

func TestNTRCardReadPastEndFails(t *testing.T) {
	c := NewNTRCard(make([]byte, 16), 0)
	c.SetAddress(10)
	if err := c.Execute(NTRCmdReadROM, 16); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestCTRCardReadHeader(t *testing.T) {
	img := make([]byte, 0x200)
	img[0] = 0xAB
	c := NewCTRCard(img, 0)

	if err := c.Execute(CTRCmdReadHeader, 1); err != nil {
		t.Fatal(err)
	}
	if got := c.ReadFIFO8(); got != 0xAB {
		t.Fatalf("got %#x want 0xab", got)
	}
}

func TestSPICardWriteEnableThenProgramThenRead(t *testing.T) {
	c := NewSPICard(nil)

	c.Select()
	c.Clock(SPICmdWriteEnable)
	c.Deselect()

	c.Select()
	c.Clock(SPICmdProgramPage)
	c.Clock(0x00)
	c.Clock(0x00)
	c.Clock(0x05) // address 0x000005
	c.Clock(0x42)
	c.Deselect()

	c.Select()
	c.Clock(SPICmdRead)
	c.Clock(0x00)
	c.Clock(0x00)
	c.Clock(0x05)
	out, err := c.Clock(0x00)
	if err != nil {
		t.Fatal(err)
	}
	if out != 0x42 {
		t.Fatalf("got %#x want 0x42", out)
	}
}

func TestSPICardWriteWithoutEnableFails(t *testing.T) {
	c := NewSPICard(nil)
	c.Select()
	c.Clock(SPICmdProgramPage)
	c.Clock(0)
	c.Clock(0)
	_, err := c.Clock(0)
	if err == nil {
		t.Fatal("expected write-without-enable error")
	}
}
