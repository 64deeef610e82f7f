package hci

import "encoding/binary"

const aclHeaderLen = 4

// PacketBoundary is the ACL packet boundary flag, bits 12-13 of the
// handle field [Vol 4, Part E, 5.4.2].
type PacketBoundary uint8

const (
	PBFirstNonFlushable PacketBoundary = 0x00 // first fragment, non-automatically-flushable
	PBContinuing        PacketBoundary = 0x01 // continuing fragment
	PBFirstFlushable    PacketBoundary = 0x02 // first fragment, automatically flushable (default for LE-U)
	PBComplete          PacketBoundary = 0x03 // complete L2CAP PDU (not used on LE-U)
)

// ACLHeader is the decoded 4-byte ACL data header that follows the
// 0x02 indicator.
type ACLHeader struct {
	Handle    uint16
	Boundary  PacketBoundary
	Broadcast uint8
	Length    uint16
}

// ParseACLHeader decodes the header at the start of b (the indicator
// byte already stripped). It reports false if fewer than 4 bytes are
// present.
func ParseACLHeader(b []byte) (ACLHeader, bool) {
	if len(b) < aclHeaderLen {
		return ACLHeader{}, false
	}
	hf := binary.LittleEndian.Uint16(b[0:2])
	return ACLHeader{
		Handle:    hf & 0x0FFF,
		Boundary:  PacketBoundary(hf>>12) & 0x3,
		Broadcast: uint8(hf>>14) & 0x3,
		Length:    binary.LittleEndian.Uint16(b[2:4]),
	}, true
}

// ACLPayload returns the payload bytes declared by the header at the
// start of b. It reports false if b is shorter than header plus the
// declared length; the embedded length field is never trusted past the
// bytes actually supplied.
func ACLPayload(b []byte) ([]byte, bool) {
	h, ok := ParseACLHeader(b)
	if !ok {
		return nil, false
	}
	end := aclHeaderLen + int(h.Length)
	if len(b) < end {
		return nil, false
	}
	return b[aclHeaderLen:end], true
}

// EncodeACL writes a full ACL data packet,
//
//	0x02 | handle_lo | handle_hi+flags | len_lo | len_hi | payload...
//
// into b and returns the used prefix. The caller guarantees
// handle <= MaxConnHandle, len(data) <= MaxACLPayloadLen and that b
// holds 5+len(data) bytes; broadcast flags stay zero (point-to-point,
// the only value used on LE-U).
func EncodeACL(b []byte, handle uint16, pb PacketBoundary, data []byte) []byte {
	hf := handle&0x0FFF | uint16(pb&0x3)<<12
	b[0] = PktTypeACLData
	binary.LittleEndian.PutUint16(b[1:3], hf)
	binary.LittleEndian.PutUint16(b[3:5], uint16(len(data)))
	copy(b[5:], data)
	return b[:5+len(data)]
}
