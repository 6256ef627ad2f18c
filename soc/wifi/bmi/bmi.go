// Package bmi implements the pre-firmware Board/Bus Management Interface
// command set of SPEC_FULL §3/§4.16: the small fixed protocol the host
// uses to push firmware into the WiFi chip's RAM and start it, before the
// richer post-firmware WMI protocol takes over.
//
// Commands are framed with github.com/fxamacker/cbor/v2, the pack's
// wired-in structured-encoding library (SPEC_FULL's domain stack), giving
// each BMI message a self-describing, versioned wire shape instead of a
// hand-rolled fixed struct layout.
package bmi

import "github.com/fxamacker/cbor/v2"

// Command ids, mirroring the well-known Atheros/QCA BMI command set this
// style of WiFi SoC exposes.
const (
	CmdDone           = 0
	CmdReadMemory     = 1
	CmdWriteMemory    = 2
	CmdExecute        = 3
	CmdSetAppStart    = 4
	CmdGetTargetInfo  = 5
)

// Request is one BMI command frame.
type Request struct {
	Cmd     uint32 `cbor:"1,keyasint"`
	Addr    uint32 `cbor:"2,keyasint"`
	Length  uint32 `cbor:"3,keyasint"`
	Payload []byte `cbor:"4,keyasint,omitempty"`
}

// Response is one BMI reply frame.
type Response struct {
	Status  uint32 `cbor:"1,keyasint"`
	Payload []byte `cbor:"2,keyasint,omitempty"`
}

// Encode serializes req for placement in a mailbox FIFO.
func Encode(req Request) ([]byte, error) {
	return cbor.Marshal(req)
}

// Decode parses a BMI request frame.
func Decode(b []byte) (Request, error) {
	var req Request
	err := cbor.Unmarshal(b, &req)
	return req, err
}

// EncodeResponse serializes resp.
func EncodeResponse(resp Response) ([]byte, error) {
	return cbor.Marshal(resp)
}

// Target is the firmware-side state a BMI session manipulates: a flat
// RAM image, an entry point set by CmdSetAppStart, and a Started flag set
// by CmdExecute.
type Target struct {
	RAM       []byte
	EntryPoint uint32
	Started    bool
}

// Handle executes req against t and returns the reply to send back.
func (t *Target) Handle(req Request) Response {
	switch req.Cmd {
	case CmdReadMemory:
		if int(req.Addr)+int(req.Length) > len(t.RAM) {
			return Response{Status: 1}
		}
		return Response{Status: 0, Payload: append([]byte(nil), t.RAM[req.Addr:int(req.Addr)+int(req.Length)]...)}

	case CmdWriteMemory:
		if int(req.Addr)+len(req.Payload) > len(t.RAM) {
			return Response{Status: 1}
		}
		copy(t.RAM[req.Addr:], req.Payload)
		return Response{Status: 0}

	case CmdSetAppStart:
		t.EntryPoint = req.Addr
		return Response{Status: 0}

	case CmdExecute:
		t.Started = true
		return Response{Status: 0}

	case CmdGetTargetInfo:
		return Response{Status: 0, Payload: []byte{1, 0, 0, 0}} // a single target-info version word

	case CmdDone:
		return Response{Status: 0}

	default:
		return Response{Status: 2}
	}
}
