package hci

// HCI packet indicator types [Vol 4, Part A, 2].
const (
	PktTypeCommand uint8 = 0x01
	PktTypeACLData uint8 = 0x02
	PktTypeSCOData uint8 = 0x03
	PktTypeEvent   uint8 = 0x04
	PktTypeVendor  uint8 = 0xFF
)

// Wire size limits.
const (
	// MaxCommandParamLen is the largest parameter block a command
	// packet can carry (the length field is one byte).
	MaxCommandParamLen = 255

	// MaxCommandPktLen is indicator + opcode + length + parameters.
	MaxCommandPktLen = 1 + 3 + MaxCommandParamLen

	// MaxACLPayloadLen is the largest LE ACL payload with Data Length
	// Extension negotiated [Vol 6, Part B, 4.5.10].
	MaxACLPayloadLen = 251

	// MaxACLPktLen is indicator + ACL header + payload.
	MaxACLPktLen = 1 + aclHeaderLen + MaxACLPayloadLen

	// MaxAdvDataLen is the legacy advertising / scan response data cap.
	MaxAdvDataLen = 31

	// MaxConnHandle is the largest valid connection handle.
	MaxConnHandle = 0x0FFF
)

// Connection roles reported by LE Connection Complete.
const (
	RoleCentral    = 0x00
	RolePeripheral = 0x01
)

// LE PHY preference bits for LE Set PHY [Vol 4, Part E, 7.8.49].
const (
	Phy1M    = 0x01
	Phy2M    = 0x02
	PhyCoded = 0x04
)

// Data Length Extension caps for LE Set Data Length [Vol 4, Part E, 7.8.33].
const (
	MaxTxOctets = 0x00FB // 251
	MaxTxTime   = 0x0848 // 2120 us
)
