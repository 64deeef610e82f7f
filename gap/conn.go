package gap

import (
	"fmt"

	"github.com/haivivi/blecore"
	"github.com/haivivi/blecore/hci"
)

// Role is this device's role on a connection.
type Role uint8

const (
	RoleCentral    Role = hci.RoleCentral
	RolePeripheral Role = hci.RolePeripheral
)

func (r Role) String() string {
	switch r {
	case RoleCentral:
		return "central"
	case RolePeripheral:
		return "peripheral"
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// ConnectionInfo holds the negotiated parameters of the tracked
// connection. It is built from LE Connection Complete and cleared on
// disconnection.
type ConnectionInfo struct {
	Handle       uint16
	Role         Role
	PeerAddr     blecore.Addr
	PeerAddrType blecore.AddrType

	// Interval is in units of 1.25 ms, SupervisionTimeout in units
	// of 10 ms.
	Interval           uint16
	Latency            uint16
	SupervisionTimeout uint16
}
