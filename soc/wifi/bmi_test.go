package wifi

import (
	"testing"

	"github.com/nine11/lle3ds/soc/wifi/bmi"
)

func TestBMIWriteThenReadMemoryRoundTrip(t *testing.T) {
	target := &bmi.Target{RAM: make([]byte, 256)}

	writeReq := bmi.Request{Cmd: bmi.CmdWriteMemory, Addr: 0x10, Payload: []byte{1, 2, 3, 4}}
	if resp := target.Handle(writeReq); resp.Status != 0 {
		t.Fatalf("write failed: status %d", resp.Status)
	}

	readReq := bmi.Request{Cmd: bmi.CmdReadMemory, Addr: 0x10, Length: 4}
	resp := target.Handle(readReq)
	if resp.Status != 0 {
		t.Fatalf("read failed: status %d", resp.Status)
	}
	for i, want := range []byte{1, 2, 3, 4} {
		if resp.Payload[i] != want {
			t.Fatalf("byte %d: got %d want %d", i, resp.Payload[i], want)
		}
	}
}

func TestBMIEncodeDecodeRoundTrip(t *testing.T) {
	req := bmi.Request{Cmd: bmi.CmdSetAppStart, Addr: 0x4010_0000}

	wire, err := bmi.Encode(req)
	if err != nil {
		t.Fatal(err)
	}

	got, err := bmi.Decode(wire)
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmd != req.Cmd || got.Addr != req.Addr {
		t.Fatalf("got %+v want %+v", got, req)
	}
}
