package gap

import (
	"fmt"

	"github.com/haivivi/blecore"
	"github.com/haivivi/blecore/hci"
)

// Parameter ranges [Vol 4, Part E, 7.8].
const (
	ScanTypePassive = 0x00
	ScanTypeActive  = 0x01

	FilterPolicyAcceptAll       = 0x00
	FilterPolicyAcceptWhitelist = 0x01

	AdvTypeADVInd        = 0x00
	AdvTypeDirectIndHigh = 0x01
	AdvTypeScanInd       = 0x02
	AdvTypeNonconnInd    = 0x03
	AdvTypeDirectIndLow  = 0x04

	AdvIntervalMin = 0x0020
	AdvIntervalMax = 0x4000

	LEScanIntervalMin = 0x0004
	LEScanIntervalMax = 0x4000
	LEScanWindowMin   = 0x0004
	LEScanWindowMax   = 0x4000

	ConnIntervalMin = 0x0006
	ConnIntervalMax = 0x0c80
	ConnLatencyMin  = 0x0000
	ConnLatencyMax  = 0x01f3

	SupervisionTimeoutMin = 0x000a
	SupervisionTimeoutMax = 0x0c80
)

// AdvertisingParams configures StartAdvertising. The zero value gets
// usable defaults: connectable undirected advertising on all three
// channels at a 20 ms interval.
type AdvertisingParams struct {
	IntervalMin uint16 // 0x0020 - 0x4000; N * 0.625 ms
	IntervalMax uint16 // 0x0020 - 0x4000; N * 0.625 ms
	Type        uint8
	OwnAddrType blecore.AddrType
	ChannelMap  uint8 // 0x01: ch37, 0x02: ch38, 0x04: ch39
	Policy      uint8

	AdvData     []byte // at most 31 bytes, may be empty
	ScanRspData []byte // at most 31 bytes, may be empty
}

func (p *AdvertisingParams) setDefaults() {
	if p.IntervalMin == 0 {
		p.IntervalMin = 0x0020
	}
	if p.IntervalMax == 0 {
		p.IntervalMax = p.IntervalMin
	}
	if p.ChannelMap == 0 {
		p.ChannelMap = 0x07
	}
}

func (p *AdvertisingParams) validate() error {
	switch {
	case p.IntervalMin < AdvIntervalMin || p.IntervalMin > AdvIntervalMax:
		return fmt.Errorf("invalid IntervalMin %v", p.IntervalMin)

	case p.IntervalMax < AdvIntervalMin || p.IntervalMax > AdvIntervalMax:
		return fmt.Errorf("invalid IntervalMax %v", p.IntervalMax)

	case p.IntervalMin > p.IntervalMax:
		return fmt.Errorf("IntervalMin %v > IntervalMax %v", p.IntervalMin, p.IntervalMax)

	case p.Type > AdvTypeDirectIndLow:
		return fmt.Errorf("invalid advertising Type %v", p.Type)

	case len(p.AdvData) > hci.MaxAdvDataLen:
		return fmt.Errorf("advertising data too long (%v)", len(p.AdvData))

	case len(p.ScanRspData) > hci.MaxAdvDataLen:
		return fmt.Errorf("scan response data too long (%v)", len(p.ScanRspData))
	}

	return nil
}

// ScanParams configures StartScanning. The zero value scans actively
// with the tightest allowed interval/window and duplicate filtering
// off.
type ScanParams struct {
	Type             uint8
	Interval         uint16 // 0x0004 - 0x4000; N * 0.625 ms
	Window           uint16 // 0x0004 - 0x4000; N * 0.625 ms
	OwnAddrType      blecore.AddrType
	Policy           uint8
	FilterDuplicates bool
}

func (p *ScanParams) setDefaults() {
	if p.Interval == 0 {
		p.Interval = 0x0004
	}
	if p.Window == 0 {
		p.Window = p.Interval
	}
}

func (p *ScanParams) validate() error {
	switch {
	case p.Type != ScanTypeActive && p.Type != ScanTypePassive:
		return fmt.Errorf("invalid scan Type %v", p.Type)

	case p.Interval < LEScanIntervalMin || p.Interval > LEScanIntervalMax:
		return fmt.Errorf("invalid scan Interval %v", p.Interval)

	case p.Window < LEScanWindowMin || p.Window > LEScanWindowMax:
		return fmt.Errorf("invalid scan Window %v", p.Window)

	case p.Window > p.Interval:
		return fmt.Errorf("scan Window %v > Interval %v", p.Window, p.Interval)

	case p.Policy != FilterPolicyAcceptAll && p.Policy != FilterPolicyAcceptWhitelist:
		return fmt.Errorf("invalid scan Policy %v", p.Policy)
	}

	return nil
}

// ConnParams configures Connect. The zero value initiates with a
// 7.5 ms connection interval and a 10.24 s supervision timeout.
type ConnParams struct {
	ScanInterval uint16 // 0x0004 - 0x4000; N * 0.625 ms
	ScanWindow   uint16 // 0x0004 - 0x4000; N * 0.625 ms
	Policy       uint8
	OwnAddrType  blecore.AddrType

	IntervalMin        uint16 // 0x0006 - 0x0C80; N * 1.25 ms
	IntervalMax        uint16 // 0x0006 - 0x0C80; N * 1.25 ms
	Latency            uint16 // 0x0000 - 0x01F3
	SupervisionTimeout uint16 // 0x000A - 0x0C80; N * 10 ms
	MinCELength        uint16
	MaxCELength        uint16
}

func (p *ConnParams) setDefaults() {
	if p.ScanInterval == 0 {
		p.ScanInterval = 0x0040
	}
	if p.ScanWindow == 0 {
		p.ScanWindow = p.ScanInterval
	}
	if p.IntervalMin == 0 {
		p.IntervalMin = 0x0006
	}
	if p.IntervalMax == 0 {
		p.IntervalMax = p.IntervalMin
	}
	if p.SupervisionTimeout == 0 {
		p.SupervisionTimeout = 0x0400
	}
}

func (p *ConnParams) validate() error {
	switch {
	case p.ScanInterval < LEScanIntervalMin || p.ScanInterval > LEScanIntervalMax:
		return fmt.Errorf("invalid ScanInterval %v", p.ScanInterval)

	case p.ScanWindow < LEScanWindowMin || p.ScanWindow > LEScanWindowMax:
		return fmt.Errorf("invalid ScanWindow %v", p.ScanWindow)

	case p.ScanWindow > p.ScanInterval:
		return fmt.Errorf("ScanWindow %v > ScanInterval %v", p.ScanWindow, p.ScanInterval)

	case p.Policy != FilterPolicyAcceptAll && p.Policy != FilterPolicyAcceptWhitelist:
		return fmt.Errorf("invalid Policy %v", p.Policy)
	}

	return validateConnInterval(p.IntervalMin, p.IntervalMax, p.Latency, p.SupervisionTimeout)
}

// UpdateParams configures UpdateConnection.
type UpdateParams struct {
	IntervalMin        uint16
	IntervalMax        uint16
	Latency            uint16
	SupervisionTimeout uint16
	MinCELength        uint16
	MaxCELength        uint16
}

func (p *UpdateParams) setDefaults() {
	if p.IntervalMin == 0 {
		p.IntervalMin = 0x0006
	}
	if p.IntervalMax == 0 {
		p.IntervalMax = p.IntervalMin
	}
	if p.SupervisionTimeout == 0 {
		p.SupervisionTimeout = 0x0400
	}
}

func (p *UpdateParams) validate() error {
	return validateConnInterval(p.IntervalMin, p.IntervalMax, p.Latency, p.SupervisionTimeout)
}

func validateConnInterval(min, max, latency, sto uint16) error {
	// The supervision timeout in milliseconds must exceed
	// (1 + latency) * intervalMax * 1.25 * 2.
	minStoMs := float64(1+latency) * float64(max) * 1.25 * 2
	stoMs := float64(sto) * 10

	switch {
	case max < ConnIntervalMin || max > ConnIntervalMax:
		return fmt.Errorf("invalid IntervalMax %v", max)

	case min < ConnIntervalMin || min > ConnIntervalMax:
		return fmt.Errorf("invalid IntervalMin %v", min)

	case min > max:
		return fmt.Errorf("IntervalMin %v > IntervalMax %v", min, max)

	case latency > ConnLatencyMax:
		return fmt.Errorf("invalid Latency %v", latency)

	case sto < SupervisionTimeoutMin || sto > SupervisionTimeoutMax:
		return fmt.Errorf("invalid SupervisionTimeout %v", sto)

	case stoMs <= minStoMs:
		return fmt.Errorf("invalid SupervisionTimeout %v (too small)", sto)
	}

	return nil
}
