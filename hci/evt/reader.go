package evt

import "encoding/binary"

// get or default
func getByte(b []byte, i int, def byte) byte {
	if i < 0 || i >= len(b) {
		return def
	}
	return b[i]
}

// get or default
func getUint16(b []byte, i int, def uint16) uint16 {
	if i < 0 || i+2 > len(b) {
		return def
	}
	return binary.LittleEndian.Uint16(b[i:])
}

// getBytes returns a count-byte window or nil when out of range.
func getBytes(b []byte, start, count int) []byte {
	if start < 0 || count < 0 || start+count > len(b) {
		return nil
	}
	return b[start : start+count]
}
