package emmc

import "testing"

func newNANDFixture(blocks int) *Card {
	img := make([]byte, blocks*512)
	for i := range img {
		img[i] = byte(i)
	}
	return NewCard(KindMMC, img)
}

func TestIdentifyAndSelectSequence(t *testing.T) {
	nand := newNANDFixture(4)
	ctl := New(nand, nil)

	ctl.Execute(CmdGoIdleState, 0)
	if nand.state != Idle {
		t.Fatalf("expected Idle after CMD0, got %v", nand.state)
	}

	ctl.Execute(CmdAllSendCID, 0)
	if nand.state != Identify {
		t.Fatalf("expected Identify after CMD2, got %v", nand.state)
	}

	ctl.Execute(CmdSendRelativeAddr, 0x1234<<16)
	if nand.state != Standby || nand.RCA != 0x1234 {
		t.Fatalf("expected Standby with RCA 0x1234, got state=%v rca=%#x", nand.state, nand.RCA)
	}

	ctl.Execute(CmdSelectCard, uint32(nand.RCA)<<16)
	if nand.state != Transfer {
		t.Fatalf("expected Transfer after CMD7, got %v", nand.state)
	}
}

func TestReadMultipleBlockAdvancesAcrossBlocks(t *testing.T) {
	nand := newNANDFixture(4)
	nand.state = Standby
	nand.RCA = 1
	ctl := New(nand, nil)
	ctl.Execute(CmdSelectCard, 1<<16)

	ctl.Execute(CmdReadMultiple, 0)

	first := ctl.ReadFIFO32()
	if first != 0x03020100 {
		t.Fatalf("expected first word of block 0, got %#x", first)
	}

	for i := 0; i < 512/4-1; i++ {
		ctl.ReadFIFO32()
	}
	ctl.ReadFIFO32() // crosses into block 1
	if ctl.blockAddr != 1 {
		t.Fatalf("expected transfer to have advanced into block 1, got block %d", ctl.blockAddr)
	}
}

func TestWriteMultipleBlockPersistsToImage(t *testing.T) {
	nand := newNANDFixture(2)
	nand.state = Standby
	nand.RCA = 1
	ctl := New(nand, nil)
	ctl.Execute(CmdSelectCard, 1<<16)

	ctl.Execute(CmdWriteMultiple, 0)
	for i := 0; i < 512/4; i++ {
		ctl.WriteFIFO32(0xaabbccdd)
	}

	if nand.Image[0] != 0xdd || nand.Image[1] != 0xcc || nand.Image[2] != 0xbb || nand.Image[3] != 0xaa {
		t.Fatalf("expected written bytes at block start, got %x", nand.Image[:4])
	}
}

func TestACMD41RequiresPollingBeforeReady(t *testing.T) {
	sd := NewCard(KindSD, make([]byte, 512))
	ctl := New(newNANDFixture(1), sd)

	ctl.Execute(CmdAppCmd, 0)
	ctl.executeACmd(ACmdSendOpCond, 0)
	if ctl.Response[0]&(1<<31) != 0 {
		t.Fatal("expected busy bit clear on first poll")
	}

	ctl.Execute(CmdAppCmd, 0)
	ctl.executeACmd(ACmdSendOpCond, 0)
	if ctl.Response[0]&(1<<31) == 0 {
		t.Fatal("expected busy bit set (ready) on second poll")
	}
	if sd.state != Ready {
		t.Fatalf("expected SD card to reach Ready state, got %v", sd.state)
	}
}

func TestOutOfRangeBlockAddressReportsError(t *testing.T) {
	nand := newNANDFixture(1)
	nand.state = Standby
	nand.RCA = 1
	ctl := New(nand, nil)
	ctl.Execute(CmdSelectCard, 1<<16)

	ctl.Execute(CmdReadMultiple, 5) // only 1 block exists
	if ctl.Err() == nil {
		t.Fatal("expected an out-of-range error")
	}
}
