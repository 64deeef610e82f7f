// Package hci implements the host side of the Bluetooth LE Host
// Controller Interface wire format: command encoding, event decoding
// and ACL data framing. All functions here are stateless; buffers are
// caller supplied and never retained.
package hci

import (
	"fmt"

	"github.com/haivivi/blecore/hci/evt"
)

// Command is a typed HCI command ready to be serialized. Concrete
// implementations live in the cmd subpackage.
type Command interface {
	// OpCode returns the 16-bit command opcode (OGF<<10 | OCF).
	OpCode() int
	// Len returns the size of the serialized parameter block.
	Len() int
	// Marshal serializes the parameters into b, which must hold at
	// least Len() bytes.
	Marshal(b []byte) error
}

// EncodeCommand serializes c into b as a full command packet,
//
//	0x01 | opcode_lo | opcode_hi | param_len | params...
//
// and returns the used prefix of b. b must hold 4+c.Len() bytes.
func EncodeCommand(b []byte, c Command) ([]byte, error) {
	if c.Len() > MaxCommandParamLen {
		return nil, fmt.Errorf("hci: command 0x%04X params too long (%d)", c.OpCode(), c.Len())
	}
	n := 1 + 3 + c.Len()
	if len(b) < n {
		return nil, fmt.Errorf("hci: buffer too short for command 0x%04X (%d < %d)", c.OpCode(), len(b), n)
	}
	b[0] = PktTypeCommand
	b[1] = byte(c.OpCode())
	b[2] = byte(c.OpCode() >> 8)
	b[3] = byte(c.Len())
	if err := c.Marshal(b[4:n]); err != nil {
		return nil, err
	}
	return b[:n], nil
}

// DecodeEvent decodes a complete event packet,
//
//	0x04 | event_code | param_len | params...
//
// into one of the typed events of the evt package. Truncated,
// malformed or unrecognized input yields (nil, false); corrupt
// controller bytes are dropped, never propagated as a hard error.
func DecodeEvent(b []byte) (evt.Event, bool) {
	if len(b) < 3 || b[0] != PktTypeEvent {
		return nil, false
	}
	code, plen := b[1], int(b[2])
	p := b[3:]
	if plen != len(p) {
		return nil, false
	}

	switch code {
	case evt.DisconnectionCompleteCode:
		e := evt.DisconnectionComplete(p)
		return e, e.Valid()
	case evt.CommandCompleteCode:
		e := evt.CommandComplete(p)
		return e, e.Valid()
	case evt.CommandStatusCode:
		e := evt.CommandStatus(p)
		return e, e.Valid()
	case evt.LEMetaCode:
		return decodeLEMeta(p)
	}
	return nil, false
}

func decodeLEMeta(p []byte) (evt.Event, bool) {
	if len(p) < 1 {
		return nil, false
	}
	switch p[0] {
	case evt.LEConnectionCompleteSubCode:
		e := evt.LEConnectionComplete(p)
		return e, e.Valid()
	case evt.LEAdvertisingReportSubCode:
		e := evt.LEAdvertisingReport(p)
		return e, e.Valid()
	case evt.LEConnectionUpdateCompleteSubCode:
		e := evt.LEConnectionUpdateComplete(p)
		return e, e.Valid()
	case evt.LEDataLengthChangeSubCode:
		e := evt.LEDataLengthChange(p)
		return e, e.Valid()
	case evt.LEPHYUpdateCompleteSubCode:
		e := evt.LEPHYUpdateComplete(p)
		return e, e.Valid()
	}
	return nil, false
}
