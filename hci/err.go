package hci

import "fmt"

// StatusSuccess is the controller status byte reported for a command
// or event that completed without error.
const StatusSuccess = 0x00

// Success reports whether a controller status byte indicates success.
func Success(status uint8) bool { return status == StatusSuccess }

// ErrCommand is a controller error status [Vol 2, Part D, 1.3].
type ErrCommand uint8

func (e ErrCommand) Error() string {
	if s, ok := errCmd[uint8(e)]; ok {
		return s
	}
	return fmt.Sprintf("command error 0x%02X", uint8(e))
}

var errCmd = map[uint8]string{
	0x01: "unknown hci command",
	0x02: "unknown connection identifier",
	0x03: "hardware failure",
	0x05: "authentication failure",
	0x06: "pin or key missing",
	0x07: "memory capacity exceeded",
	0x08: "connection timeout",
	0x09: "connection limit exceeded",
	0x0B: "connection already exists",
	0x0C: "command disallowed",
	0x0D: "connection rejected due to limited resources",
	0x11: "unsupported feature or parameter value",
	0x12: "invalid hci command parameters",
	0x13: "remote user terminated connection",
	0x16: "connection terminated by local host",
	0x1E: "invalid lmp parameters",
	0x1F: "unspecified error",
	0x22: "lmp response timeout",
	0x28: "instant passed",
	0x3B: "unacceptable connection parameters",
	0x3C: "advertising timeout",
	0x3E: "connection failed to be established",
}
