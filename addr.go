package blecore

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddrType is the device address kind carried on the wire.
type AddrType uint8

// Device address types [Vol 6, Part B, 1.3].
const (
	AddrTypePublic AddrType = 0x00
	AddrTypeRandom AddrType = 0x01
)

func (t AddrType) String() string {
	switch t {
	case AddrTypePublic:
		return "public"
	case AddrTypeRandom:
		return "random"
	}
	return fmt.Sprintf("addrtype(%d)", uint8(t))
}

// Addr is a 6-byte device address stored in wire order (least
// significant byte first). It is a value type and copies freely.
type Addr [6]byte

// String renders the address most significant byte first, the way
// addresses are conventionally printed.
func (a Addr) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		a[5], a[4], a[3], a[2], a[1], a[0])
}

// Bytes returns the address in wire order.
func (a Addr) Bytes() []byte {
	b := make([]byte, 6)
	copy(b, a[:])
	return b
}

// NewAddr parses an address of the form "aa:bb:cc:dd:ee:ff"
// (case insensitive, separators optional).
func NewAddr(s string) (Addr, error) {
	hexStr := strings.Replace(strings.ToLower(s), ":", "", -1)

	out, err := hex.DecodeString(hexStr)
	if err != nil {
		return Addr{}, fmt.Errorf("bad address %q: %v", s, err)
	}
	if len(out) != 6 {
		return Addr{}, fmt.Errorf("bad address %q: want 6 bytes, got %d", s, len(out))
	}

	a := Addr{}
	for i := 0; i < 6; i++ {
		a[i] = out[5-i]
	}
	return a, nil
}
