// Package evt defines the typed HCI events the controller reports.
// Each event is a newtype over the raw parameter bytes with defensive
// accessors; short or corrupt buffers yield zero values, never a read
// past the end.
package evt

// Event codes [Vol 4, Part E, 7.7].
const (
	DisconnectionCompleteCode = 0x05
	CommandCompleteCode       = 0x0E
	CommandStatusCode         = 0x0F
	LEMetaCode                = 0x3E
)

// LE Meta subevent codes [Vol 4, Part E, 7.7.65].
const (
	LEConnectionCompleteSubCode       = 0x01
	LEAdvertisingReportSubCode        = 0x02
	LEConnectionUpdateCompleteSubCode = 0x03
	LEDataLengthChangeSubCode         = 0x07
	LEPHYUpdateCompleteSubCode        = 0x0C
)

// Event is the closed set of decoded controller events. The concrete
// types in this package are its only implementations.
type Event interface {
	event()
}

func (CommandComplete) event()             {}
func (CommandStatus) event()               {}
func (DisconnectionComplete) event()       {}
func (LEConnectionComplete) event()        {}
func (LEAdvertisingReport) event()         {}
func (LEConnectionUpdateComplete) event()  {}
func (LEDataLengthChange) event()          {}
func (LEPHYUpdateComplete) event()         {}

// CommandComplete implements Command Complete (0x0E) [Vol 4, Part E, 7.7.14].
type CommandComplete []byte

func (e CommandComplete) Valid() bool                { return len(e) >= 3 }
func (e CommandComplete) NumHCICommandPackets() uint8 { return getByte(e, 0, 0) }
func (e CommandComplete) CommandOpcode() uint16       { return getUint16(e, 1, 0xFFFF) }
func (e CommandComplete) ReturnParameters() []byte {
	if len(e) < 3 {
		return nil
	}
	return e[3:]
}

// Status returns the first return parameter byte, which for most
// commands is the completion status.
func (e CommandComplete) Status() uint8 { return getByte(e, 3, 0xFF) }

// CommandStatus implements Command Status (0x0F) [Vol 4, Part E, 7.7.15].
type CommandStatus []byte

func (e CommandStatus) Valid() bool                  { return len(e) >= 4 }
func (e CommandStatus) Status() uint8                { return getByte(e, 0, 0xFF) }
func (e CommandStatus) NumHCICommandPackets() uint8  { return getByte(e, 1, 0) }
func (e CommandStatus) CommandOpcode() uint16        { return getUint16(e, 2, 0xFFFF) }

// DisconnectionComplete implements Disconnection Complete (0x05)
// [Vol 4, Part E, 7.7.5].
type DisconnectionComplete []byte

func (e DisconnectionComplete) Valid() bool              { return len(e) >= 4 }
func (e DisconnectionComplete) Status() uint8            { return getByte(e, 0, 0xFF) }
func (e DisconnectionComplete) ConnectionHandle() uint16 { return getUint16(e, 1, 0xFFFF) }
func (e DisconnectionComplete) Reason() uint8            { return getByte(e, 3, 0) }

// LEConnectionComplete implements LE Connection Complete (0x3E:0x01)
// [Vol 4, Part E, 7.7.65.1]. The buffer includes the subevent byte.
type LEConnectionComplete []byte

func (e LEConnectionComplete) Valid() bool               { return len(e) >= 19 }
func (e LEConnectionComplete) SubeventCode() uint8       { return getByte(e, 0, 0) }
func (e LEConnectionComplete) Status() uint8             { return getByte(e, 1, 0xFF) }
func (e LEConnectionComplete) ConnectionHandle() uint16  { return getUint16(e, 2, 0xFFFF) }
func (e LEConnectionComplete) Role() uint8               { return getByte(e, 4, 0xFF) }
func (e LEConnectionComplete) PeerAddressType() uint8    { return getByte(e, 5, 0xFF) }
func (e LEConnectionComplete) PeerAddress() [6]byte {
	out := [6]byte{}
	copy(out[:], getBytes(e, 6, 6))
	return out
}
func (e LEConnectionComplete) ConnInterval() uint16       { return getUint16(e, 12, 0) }
func (e LEConnectionComplete) ConnLatency() uint16        { return getUint16(e, 14, 0) }
func (e LEConnectionComplete) SupervisionTimeout() uint16 { return getUint16(e, 16, 0) }
func (e LEConnectionComplete) MasterClockAccuracy() uint8 { return getByte(e, 18, 0) }

// LEConnectionUpdateComplete implements LE Connection Update Complete
// (0x3E:0x03) [Vol 4, Part E, 7.7.65.3].
type LEConnectionUpdateComplete []byte

func (e LEConnectionUpdateComplete) Valid() bool                { return len(e) >= 10 }
func (e LEConnectionUpdateComplete) SubeventCode() uint8        { return getByte(e, 0, 0) }
func (e LEConnectionUpdateComplete) Status() uint8              { return getByte(e, 1, 0xFF) }
func (e LEConnectionUpdateComplete) ConnectionHandle() uint16   { return getUint16(e, 2, 0xFFFF) }
func (e LEConnectionUpdateComplete) ConnInterval() uint16       { return getUint16(e, 4, 0) }
func (e LEConnectionUpdateComplete) ConnLatency() uint16        { return getUint16(e, 6, 0) }
func (e LEConnectionUpdateComplete) SupervisionTimeout() uint16 { return getUint16(e, 8, 0) }

// LEDataLengthChange implements LE Data Length Change (0x3E:0x07)
// [Vol 4, Part E, 7.7.65.7].
type LEDataLengthChange []byte

func (e LEDataLengthChange) Valid() bool              { return len(e) >= 11 }
func (e LEDataLengthChange) SubeventCode() uint8      { return getByte(e, 0, 0) }
func (e LEDataLengthChange) ConnectionHandle() uint16 { return getUint16(e, 1, 0xFFFF) }
func (e LEDataLengthChange) MaxTxOctets() uint16      { return getUint16(e, 3, 0) }
func (e LEDataLengthChange) MaxTxTime() uint16        { return getUint16(e, 5, 0) }
func (e LEDataLengthChange) MaxRxOctets() uint16      { return getUint16(e, 7, 0) }
func (e LEDataLengthChange) MaxRxTime() uint16        { return getUint16(e, 9, 0) }

// LEPHYUpdateComplete implements LE PHY Update Complete (0x3E:0x0C)
// [Vol 4, Part E, 7.7.65.12].
type LEPHYUpdateComplete []byte

func (e LEPHYUpdateComplete) Valid() bool              { return len(e) >= 6 }
func (e LEPHYUpdateComplete) SubeventCode() uint8      { return getByte(e, 0, 0) }
func (e LEPHYUpdateComplete) Status() uint8            { return getByte(e, 1, 0xFF) }
func (e LEPHYUpdateComplete) ConnectionHandle() uint16 { return getUint16(e, 2, 0xFFFF) }
func (e LEPHYUpdateComplete) TxPhy() uint8             { return getByte(e, 4, 0) }
func (e LEPHYUpdateComplete) RxPhy() uint8             { return getByte(e, 5, 0) }
