package gap

import (
	"github.com/haivivi/blecore"
	"github.com/haivivi/blecore/hci"
)

// Event is one outcome delivered to the application through PollEvent.
// The concrete types below are its only implementations.
type Event interface {
	gapEvent()
}

func (AdvertisingStarted) gapEvent() {}
func (AdvertisingStopped) gapEvent() {}
func (Connected) gapEvent()          {}
func (ConnectionFailed) gapEvent()   {}
func (Disconnected) gapEvent()       {}
func (DeviceFound) gapEvent()        {}
func (ConnectionUpdated) gapEvent()  {}
func (DataLengthChanged) gapEvent()  {}
func (PHYUpdated) gapEvent()         {}

// AdvertisingStarted reports that advertising commands were queued and
// the machine entered the advertising mode.
type AdvertisingStarted struct{}

// AdvertisingStopped reports that advertising ended, either by request
// or because a central connected.
type AdvertisingStopped struct{}

// Connected reports an established connection.
type Connected struct {
	Info ConnectionInfo
}

// ConnectionFailed reports a connection attempt that the controller
// rejected or that failed to establish. Status is the controller
// reason code.
type ConnectionFailed struct {
	Status uint8
}

// Disconnected reports that the tracked connection ended.
type Disconnected struct {
	Handle uint16
	Reason uint8
}

// DeviceFound reports one advertising sub-report seen while scanning.
// Data is a copy; the event owns its bytes.
type DeviceFound struct {
	EventType uint8
	AddrType  blecore.AddrType
	Addr      blecore.Addr
	RSSI      int8
	DataLen   uint8
	Data      [hci.MaxAdvDataLen]byte
}

// AdvBytes returns the advertising data carried by the report.
func (d *DeviceFound) AdvBytes() []byte { return d.Data[:d.DataLen] }

// ConnectionUpdated reports renegotiated connection parameters.
type ConnectionUpdated struct {
	Handle             uint16
	Interval           uint16
	Latency            uint16
	SupervisionTimeout uint16
}

// DataLengthChanged reports the negotiated ACL payload sizes.
type DataLengthChanged struct {
	Handle      uint16
	MaxTxOctets uint16
	MaxTxTime   uint16
	MaxRxOctets uint16
	MaxRxTime   uint16
}

// PHYUpdated reports the PHYs in use after an LE PHY update procedure.
type PHYUpdated struct {
	Handle uint16
	Status uint8
	TxPhy  uint8
	RxPhy  uint8
}
