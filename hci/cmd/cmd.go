// Package cmd defines the typed HCI commands the host issues. Each
// command knows its SIG-assigned opcode and serializes itself into a
// caller supplied buffer; nothing here allocates.
package cmd

import (
	"encoding/binary"
	"fmt"
)

// Opcode group fields.
const (
	ogfLinkCtl = 0x01
	ogfLECtl   = 0x08
)

func opCode(ogf, ocf int) int { return ogf<<10 | ocf }

func checkLen(b []byte, name string, n int) error {
	if len(b) < n {
		return fmt.Errorf("cmd: %s: buffer too short (%d < %d)", name, len(b), n)
	}
	return nil
}

// Disconnect implements Disconnect (0x01|0x0006) [Vol 4, Part E, 7.1.6].
type Disconnect struct {
	ConnectionHandle uint16
	Reason           uint8
}

func (c *Disconnect) OpCode() int { return opCode(ogfLinkCtl, 0x0006) }
func (c *Disconnect) Len() int    { return 3 }
func (c *Disconnect) Marshal(b []byte) error {
	if err := checkLen(b, "Disconnect", c.Len()); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b[0:2], c.ConnectionHandle)
	b[2] = c.Reason
	return nil
}

// LESetRandomAddress implements LE Set Random Address (0x08|0x0005)
// [Vol 4, Part E, 7.8.4].
type LESetRandomAddress struct {
	RandomAddress [6]byte
}

func (c *LESetRandomAddress) OpCode() int { return opCode(ogfLECtl, 0x0005) }
func (c *LESetRandomAddress) Len() int    { return 6 }
func (c *LESetRandomAddress) Marshal(b []byte) error {
	if err := checkLen(b, "LESetRandomAddress", c.Len()); err != nil {
		return err
	}
	copy(b[0:6], c.RandomAddress[:])
	return nil
}

// LESetAdvertisingParameters implements LE Set Advertising Parameters
// (0x08|0x0006) [Vol 4, Part E, 7.8.5].
type LESetAdvertisingParameters struct {
	AdvertisingIntervalMin  uint16
	AdvertisingIntervalMax  uint16
	AdvertisingType         uint8
	OwnAddressType          uint8
	DirectAddressType       uint8
	DirectAddress           [6]byte
	AdvertisingChannelMap   uint8
	AdvertisingFilterPolicy uint8
}

func (c *LESetAdvertisingParameters) OpCode() int { return opCode(ogfLECtl, 0x0006) }
func (c *LESetAdvertisingParameters) Len() int    { return 15 }
func (c *LESetAdvertisingParameters) Marshal(b []byte) error {
	if err := checkLen(b, "LESetAdvertisingParameters", c.Len()); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b[0:2], c.AdvertisingIntervalMin)
	binary.LittleEndian.PutUint16(b[2:4], c.AdvertisingIntervalMax)
	b[4] = c.AdvertisingType
	b[5] = c.OwnAddressType
	b[6] = c.DirectAddressType
	copy(b[7:13], c.DirectAddress[:])
	b[13] = c.AdvertisingChannelMap
	b[14] = c.AdvertisingFilterPolicy
	return nil
}

// LESetAdvertisingData implements LE Set Advertising Data (0x08|0x0008)
// [Vol 4, Part E, 7.8.7]. The data block is always 31 bytes on the
// wire, zero padded past AdvertisingDataLength.
type LESetAdvertisingData struct {
	AdvertisingDataLength uint8
	AdvertisingData       [31]byte
}

func (c *LESetAdvertisingData) OpCode() int { return opCode(ogfLECtl, 0x0008) }
func (c *LESetAdvertisingData) Len() int    { return 32 }
func (c *LESetAdvertisingData) Marshal(b []byte) error {
	if err := checkLen(b, "LESetAdvertisingData", c.Len()); err != nil {
		return err
	}
	b[0] = c.AdvertisingDataLength
	copy(b[1:32], c.AdvertisingData[:])
	return nil
}

// LESetScanResponseData implements LE Set Scan Response Data
// (0x08|0x0009) [Vol 4, Part E, 7.8.8].
type LESetScanResponseData struct {
	ScanResponseDataLength uint8
	ScanResponseData       [31]byte
}

func (c *LESetScanResponseData) OpCode() int { return opCode(ogfLECtl, 0x0009) }
func (c *LESetScanResponseData) Len() int    { return 32 }
func (c *LESetScanResponseData) Marshal(b []byte) error {
	if err := checkLen(b, "LESetScanResponseData", c.Len()); err != nil {
		return err
	}
	b[0] = c.ScanResponseDataLength
	copy(b[1:32], c.ScanResponseData[:])
	return nil
}

// LESetAdvertiseEnable implements LE Set Advertising Enable
// (0x08|0x000A) [Vol 4, Part E, 7.8.9].
type LESetAdvertiseEnable struct {
	AdvertisingEnable uint8
}

func (c *LESetAdvertiseEnable) OpCode() int { return opCode(ogfLECtl, 0x000A) }
func (c *LESetAdvertiseEnable) Len() int    { return 1 }
func (c *LESetAdvertiseEnable) Marshal(b []byte) error {
	if err := checkLen(b, "LESetAdvertiseEnable", c.Len()); err != nil {
		return err
	}
	b[0] = c.AdvertisingEnable
	return nil
}

// LESetScanParameters implements LE Set Scan Parameters (0x08|0x000B)
// [Vol 4, Part E, 7.8.10].
type LESetScanParameters struct {
	LEScanType           uint8
	LEScanInterval       uint16
	LEScanWindow         uint16
	OwnAddressType       uint8
	ScanningFilterPolicy uint8
}

func (c *LESetScanParameters) OpCode() int { return opCode(ogfLECtl, 0x000B) }
func (c *LESetScanParameters) Len() int    { return 7 }
func (c *LESetScanParameters) Marshal(b []byte) error {
	if err := checkLen(b, "LESetScanParameters", c.Len()); err != nil {
		return err
	}
	b[0] = c.LEScanType
	binary.LittleEndian.PutUint16(b[1:3], c.LEScanInterval)
	binary.LittleEndian.PutUint16(b[3:5], c.LEScanWindow)
	b[5] = c.OwnAddressType
	b[6] = c.ScanningFilterPolicy
	return nil
}

// LESetScanEnable implements LE Set Scan Enable (0x08|0x000C)
// [Vol 4, Part E, 7.8.11].
type LESetScanEnable struct {
	LEScanEnable     uint8
	FilterDuplicates uint8
}

func (c *LESetScanEnable) OpCode() int { return opCode(ogfLECtl, 0x000C) }
func (c *LESetScanEnable) Len() int    { return 2 }
func (c *LESetScanEnable) Marshal(b []byte) error {
	if err := checkLen(b, "LESetScanEnable", c.Len()); err != nil {
		return err
	}
	b[0] = c.LEScanEnable
	b[1] = c.FilterDuplicates
	return nil
}

// LECreateConnection implements LE Create Connection (0x08|0x000D)
// [Vol 4, Part E, 7.8.12].
type LECreateConnection struct {
	LEScanInterval        uint16
	LEScanWindow          uint16
	InitiatorFilterPolicy uint8
	PeerAddressType       uint8
	PeerAddress           [6]byte
	OwnAddressType        uint8
	ConnIntervalMin       uint16
	ConnIntervalMax       uint16
	ConnLatency           uint16
	SupervisionTimeout    uint16
	MinimumCELength       uint16
	MaximumCELength       uint16
}

func (c *LECreateConnection) OpCode() int { return opCode(ogfLECtl, 0x000D) }
func (c *LECreateConnection) Len() int    { return 25 }
func (c *LECreateConnection) Marshal(b []byte) error {
	if err := checkLen(b, "LECreateConnection", c.Len()); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b[0:2], c.LEScanInterval)
	binary.LittleEndian.PutUint16(b[2:4], c.LEScanWindow)
	b[4] = c.InitiatorFilterPolicy
	b[5] = c.PeerAddressType
	copy(b[6:12], c.PeerAddress[:])
	b[12] = c.OwnAddressType
	binary.LittleEndian.PutUint16(b[13:15], c.ConnIntervalMin)
	binary.LittleEndian.PutUint16(b[15:17], c.ConnIntervalMax)
	binary.LittleEndian.PutUint16(b[17:19], c.ConnLatency)
	binary.LittleEndian.PutUint16(b[19:21], c.SupervisionTimeout)
	binary.LittleEndian.PutUint16(b[21:23], c.MinimumCELength)
	binary.LittleEndian.PutUint16(b[23:25], c.MaximumCELength)
	return nil
}

// LECreateConnectionCancel implements LE Create Connection Cancel
// (0x08|0x000E) [Vol 4, Part E, 7.8.13].
type LECreateConnectionCancel struct{}

func (c *LECreateConnectionCancel) OpCode() int           { return opCode(ogfLECtl, 0x000E) }
func (c *LECreateConnectionCancel) Len() int              { return 0 }
func (c *LECreateConnectionCancel) Marshal([]byte) error  { return nil }

// LEConnectionUpdate implements LE Connection Update (0x08|0x0013)
// [Vol 4, Part E, 7.8.18].
type LEConnectionUpdate struct {
	ConnectionHandle   uint16
	ConnIntervalMin    uint16
	ConnIntervalMax    uint16
	ConnLatency        uint16
	SupervisionTimeout uint16
	MinimumCELength    uint16
	MaximumCELength    uint16
}

func (c *LEConnectionUpdate) OpCode() int { return opCode(ogfLECtl, 0x0013) }
func (c *LEConnectionUpdate) Len() int    { return 14 }
func (c *LEConnectionUpdate) Marshal(b []byte) error {
	if err := checkLen(b, "LEConnectionUpdate", c.Len()); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b[0:2], c.ConnectionHandle)
	binary.LittleEndian.PutUint16(b[2:4], c.ConnIntervalMin)
	binary.LittleEndian.PutUint16(b[4:6], c.ConnIntervalMax)
	binary.LittleEndian.PutUint16(b[6:8], c.ConnLatency)
	binary.LittleEndian.PutUint16(b[8:10], c.SupervisionTimeout)
	binary.LittleEndian.PutUint16(b[10:12], c.MinimumCELength)
	binary.LittleEndian.PutUint16(b[12:14], c.MaximumCELength)
	return nil
}

// LESetDataLength implements LE Set Data Length (0x08|0x0022)
// [Vol 4, Part E, 7.8.33]. TxOctets and TxTime are suggestions; the
// protocol caps (251 octets, 2120 us) are the caller's to respect.
type LESetDataLength struct {
	ConnectionHandle uint16
	TxOctets         uint16
	TxTime           uint16
}

func (c *LESetDataLength) OpCode() int { return opCode(ogfLECtl, 0x0022) }
func (c *LESetDataLength) Len() int    { return 6 }
func (c *LESetDataLength) Marshal(b []byte) error {
	if err := checkLen(b, "LESetDataLength", c.Len()); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b[0:2], c.ConnectionHandle)
	binary.LittleEndian.PutUint16(b[2:4], c.TxOctets)
	binary.LittleEndian.PutUint16(b[4:6], c.TxTime)
	return nil
}

// LESetPHY implements LE Set PHY (0x08|0x0032) [Vol 4, Part E, 7.8.49].
type LESetPHY struct {
	ConnectionHandle uint16
	AllPhys          uint8
	TxPhys           uint8
	RxPhys           uint8
	PhyOptions       uint16
}

func (c *LESetPHY) OpCode() int { return opCode(ogfLECtl, 0x0032) }
func (c *LESetPHY) Len() int    { return 7 }
func (c *LESetPHY) Marshal(b []byte) error {
	if err := checkLen(b, "LESetPHY", c.Len()); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b[0:2], c.ConnectionHandle)
	b[2] = c.AllPhys
	b[3] = c.TxPhys
	b[4] = c.RxPhys
	binary.LittleEndian.PutUint16(b[5:7], c.PhyOptions)
	return nil
}
