// Package gap implements the Generic Access Profile state machine for
// a single-connection LE host. It sequences HCI commands for the
// peripheral and central roles, correlates controller events with the
// tracked connection, and exposes outcomes through a bounded event
// queue.
//
// A Gap is owned by exactly one execution context: it performs no
// internal locking, and no operation blocks. Operations only encode
// commands onto the outbound queue and flip the mode; the external
// transport driver drains NextCommand, ships the packets, and feeds
// decoded controller events back through HandleEvent.
package gap

import (
	"github.com/pkg/errors"

	"github.com/haivivi/blecore"
	"github.com/haivivi/blecore/hci"
	"github.com/haivivi/blecore/hci/cmd"
	"github.com/haivivi/blecore/hci/evt"
)

// Usage errors, returned synchronously and recoverable by the caller.
// Wrapped errors keep these as their cause.
var (
	ErrInvalidState     = errors.New("gap: operation not valid in current mode")
	ErrCommandQueueFull = errors.New("gap: command queue full")
)

// Mode is the lifecycle phase of the state machine. Exactly one mode
// is active at all times.
type Mode uint8

const (
	ModeIdle Mode = iota
	ModeAdvertising
	ModeScanning
	ModeConnecting
	ModeConnected
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeAdvertising:
		return "advertising"
	case ModeScanning:
		return "scanning"
	case ModeConnecting:
		return "connecting"
	case ModeConnected:
		return "connected"
	}
	return "unknown"
}

var opLECreateConnection = (&cmd.LECreateConnection{}).OpCode()

// Gap is the state machine. Create one per radio with New; the zero
// value is not ready for use.
type Gap struct {
	mode    Mode
	conn    ConnectionInfo
	tracked bool

	cmds   commandQueue
	events eventQueue

	log blecore.Logger
}

// Option configures a Gap.
type Option func(*Gap)

// WithLogger replaces the default package logger.
func WithLogger(l blecore.Logger) Option {
	return func(g *Gap) { g.log = l }
}

// New returns an idle state machine.
func New(opts ...Option) *Gap {
	g := &Gap{
		log: blecore.GetLogger().ChildLogger(map[string]interface{}{"pkg": "gap"}),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Mode returns the current lifecycle phase.
func (g *Gap) Mode() Mode { return g.mode }

// Connection returns the tracked connection, valid only while
// connected.
func (g *Gap) Connection() (ConnectionInfo, bool) { return g.conn, g.tracked }

// StartAdvertising configures and enables advertising. Valid from idle
// only. The mode flips to advertising as soon as the commands are
// queued, before the controller confirms the enable; a later command
// failure does not roll the mode back.
func (g *Gap) StartAdvertising(p AdvertisingParams) error {
	if g.mode != ModeIdle {
		return g.invalidState("start advertising")
	}
	p.setDefaults()
	if err := p.validate(); err != nil {
		return errors.Wrap(err, "gap: advertising params")
	}

	n := 2
	if len(p.AdvData) > 0 {
		n++
	}
	if len(p.ScanRspData) > 0 {
		n++
	}
	if err := g.ensureCapacity(n); err != nil {
		return err
	}

	g.queue(&cmd.LESetAdvertisingParameters{
		AdvertisingIntervalMin:  p.IntervalMin,
		AdvertisingIntervalMax:  p.IntervalMax,
		AdvertisingType:         p.Type,
		OwnAddressType:          uint8(p.OwnAddrType),
		AdvertisingChannelMap:   p.ChannelMap,
		AdvertisingFilterPolicy: p.Policy,
	})
	if len(p.AdvData) > 0 {
		c := &cmd.LESetAdvertisingData{AdvertisingDataLength: uint8(len(p.AdvData))}
		copy(c.AdvertisingData[:], p.AdvData)
		g.queue(c)
	}
	if len(p.ScanRspData) > 0 {
		c := &cmd.LESetScanResponseData{ScanResponseDataLength: uint8(len(p.ScanRspData))}
		copy(c.ScanResponseData[:], p.ScanRspData)
		g.queue(c)
	}
	g.queue(&cmd.LESetAdvertiseEnable{AdvertisingEnable: 1})

	g.setMode(ModeAdvertising)
	g.emit(AdvertisingStarted{})
	return nil
}

// StopAdvertising disables advertising. Valid from advertising.
func (g *Gap) StopAdvertising() error {
	if g.mode != ModeAdvertising {
		return g.invalidState("stop advertising")
	}
	if err := g.ensureCapacity(1); err != nil {
		return err
	}
	g.queue(&cmd.LESetAdvertiseEnable{AdvertisingEnable: 0})
	g.setMode(ModeIdle)
	g.emit(AdvertisingStopped{})
	return nil
}

// StartScanning configures and enables scanning. Valid from idle only.
// As with advertising, the mode flips before controller confirmation.
func (g *Gap) StartScanning(p ScanParams) error {
	if g.mode != ModeIdle {
		return g.invalidState("start scanning")
	}
	p.setDefaults()
	if err := p.validate(); err != nil {
		return errors.Wrap(err, "gap: scan params")
	}
	if err := g.ensureCapacity(2); err != nil {
		return err
	}

	g.queue(&cmd.LESetScanParameters{
		LEScanType:           p.Type,
		LEScanInterval:       p.Interval,
		LEScanWindow:         p.Window,
		OwnAddressType:       uint8(p.OwnAddrType),
		ScanningFilterPolicy: p.Policy,
	})
	g.queue(&cmd.LESetScanEnable{LEScanEnable: 1, FilterDuplicates: boolByte(p.FilterDuplicates)})

	g.setMode(ModeScanning)
	return nil
}

// StopScanning disables scanning. Valid from scanning.
func (g *Gap) StopScanning() error {
	if g.mode != ModeScanning {
		return g.invalidState("stop scanning")
	}
	if err := g.ensureCapacity(1); err != nil {
		return err
	}
	g.queue(&cmd.LESetScanEnable{LEScanEnable: 0, FilterDuplicates: 0})
	g.setMode(ModeIdle)
	return nil
}

// Connect initiates a connection to the given peer. Valid from
// scanning or idle; an active scan is stopped first. The machine stays
// in connecting until the controller reports LE Connection Complete —
// there is no timeout here, that policy belongs to the caller (see
// CancelConnect).
func (g *Gap) Connect(peer blecore.Addr, peerType blecore.AddrType, p ConnParams) error {
	if g.mode != ModeScanning && g.mode != ModeIdle {
		return g.invalidState("connect")
	}
	p.setDefaults()
	if err := p.validate(); err != nil {
		return errors.Wrap(err, "gap: conn params")
	}

	n := 1
	if g.mode == ModeScanning {
		n++
	}
	if err := g.ensureCapacity(n); err != nil {
		return err
	}

	if g.mode == ModeScanning {
		g.queue(&cmd.LESetScanEnable{LEScanEnable: 0, FilterDuplicates: 0})
	}
	c := &cmd.LECreateConnection{
		LEScanInterval:        p.ScanInterval,
		LEScanWindow:          p.ScanWindow,
		InitiatorFilterPolicy: p.Policy,
		PeerAddressType:       uint8(peerType),
		OwnAddressType:        uint8(p.OwnAddrType),
		ConnIntervalMin:       p.IntervalMin,
		ConnIntervalMax:       p.IntervalMax,
		ConnLatency:           p.Latency,
		SupervisionTimeout:    p.SupervisionTimeout,
		MinimumCELength:       p.MinCELength,
		MaximumCELength:       p.MaxCELength,
	}
	copy(c.PeerAddress[:], peer[:])
	g.queue(c)

	g.setMode(ModeConnecting)
	return nil
}

// CancelConnect asks the controller to abandon the pending connection
// attempt. Valid from connecting. The mode stays connecting until the
// controller reports the canceled attempt through LE Connection
// Complete with a failure status.
func (g *Gap) CancelConnect() error {
	if g.mode != ModeConnecting {
		return g.invalidState("cancel connect")
	}
	if err := g.ensureCapacity(1); err != nil {
		return err
	}
	g.queue(&cmd.LECreateConnectionCancel{})
	return nil
}

// Disconnect terminates the connection. Valid from connected. The mode
// returns to idle only when the matching Disconnection Complete event
// arrives.
func (g *Gap) Disconnect(handle uint16, reason uint8) error {
	if g.mode != ModeConnected {
		return g.invalidState("disconnect")
	}
	if err := g.ensureCapacity(1); err != nil {
		return err
	}
	g.queue(&cmd.Disconnect{ConnectionHandle: handle, Reason: reason})
	return nil
}

// RequestDataLength suggests larger link-layer payloads for the
// connection. Valid from connected. The protocol caps (txOctets <=
// 251, txTime <= 2120) are the caller's to respect; nothing here
// clamps.
func (g *Gap) RequestDataLength(handle, txOctets, txTime uint16) error {
	if g.mode != ModeConnected {
		return g.invalidState("request data length")
	}
	if err := g.ensureCapacity(1); err != nil {
		return err
	}
	g.queue(&cmd.LESetDataLength{ConnectionHandle: handle, TxOctets: txOctets, TxTime: txTime})
	return nil
}

// RequestPhyUpdate asks for the given TX/RX PHYs (bit masks of
// hci.Phy1M/Phy2M/PhyCoded), with no PHY excluded from negotiation and
// no coded-PHY preference. Valid from connected.
func (g *Gap) RequestPhyUpdate(handle uint16, txPhys, rxPhys uint8) error {
	if g.mode != ModeConnected {
		return g.invalidState("request phy update")
	}
	if err := g.ensureCapacity(1); err != nil {
		return err
	}
	g.queue(&cmd.LESetPHY{
		ConnectionHandle: handle,
		AllPhys:          0,
		TxPhys:           txPhys,
		RxPhys:           rxPhys,
		PhyOptions:       0,
	})
	return nil
}

// UpdateConnection renegotiates connection parameters. Valid from
// connected.
func (g *Gap) UpdateConnection(handle uint16, p UpdateParams) error {
	if g.mode != ModeConnected {
		return g.invalidState("update connection")
	}
	p.setDefaults()
	if err := p.validate(); err != nil {
		return errors.Wrap(err, "gap: update params")
	}
	if err := g.ensureCapacity(1); err != nil {
		return err
	}
	g.queue(&cmd.LEConnectionUpdate{
		ConnectionHandle:   handle,
		ConnIntervalMin:    p.IntervalMin,
		ConnIntervalMax:    p.IntervalMax,
		ConnLatency:        p.Latency,
		SupervisionTimeout: p.SupervisionTimeout,
		MinimumCELength:    p.MinCELength,
		MaximumCELength:    p.MaxCELength,
	})
	return nil
}

// SetRandomAddress loads a random device address into the controller.
// Valid from idle.
func (g *Gap) SetRandomAddress(a blecore.Addr) error {
	if g.mode != ModeIdle {
		return g.invalidState("set random address")
	}
	if err := g.ensureCapacity(1); err != nil {
		return err
	}
	c := &cmd.LESetRandomAddress{}
	copy(c.RandomAddress[:], a[:])
	g.queue(c)
	return nil
}

// NextCommand dequeues the oldest pending command packet, reporting
// false when the queue is empty.
func (g *Gap) NextCommand() (PendingCommand, bool) {
	s, ok := g.cmds.pop()
	if !ok {
		return PendingCommand{}, false
	}
	return *s, true
}

// PollEvent dequeues the oldest pending GAP event, reporting false
// when the queue is empty.
func (g *Gap) PollEvent() (Event, bool) {
	return g.events.pop()
}

// HandleEvent feeds one decoded controller event into the state
// machine. It never blocks and always leaves the machine in a
// well-defined mode; events that do not apply to the current mode or
// tracked connection are dropped.
func (g *Gap) HandleEvent(e evt.Event) {
	switch e := e.(type) {
	case evt.CommandComplete:
		g.log.Debugf("command complete: opcode 0x%04X status 0x%02X",
			e.CommandOpcode(), e.Status())

	case evt.CommandStatus:
		g.handleCommandStatus(e)

	case evt.LEConnectionComplete:
		g.handleConnectionComplete(e)

	case evt.LEAdvertisingReport:
		g.handleAdvertisingReport(e)

	case evt.DisconnectionComplete:
		g.handleDisconnectionComplete(e)

	case evt.LEConnectionUpdateComplete:
		g.handleConnectionUpdateComplete(e)

	case evt.LEDataLengthChange:
		g.emit(DataLengthChanged{
			Handle:      e.ConnectionHandle(),
			MaxTxOctets: e.MaxTxOctets(),
			MaxTxTime:   e.MaxTxTime(),
			MaxRxOctets: e.MaxRxOctets(),
			MaxRxTime:   e.MaxRxTime(),
		})

	case evt.LEPHYUpdateComplete:
		g.emit(PHYUpdated{
			Handle: e.ConnectionHandle(),
			Status: e.Status(),
			TxPhy:  e.TxPhy(),
			RxPhy:  e.RxPhy(),
		})
	}
}

func (g *Gap) handleCommandStatus(e evt.CommandStatus) {
	if hci.Success(e.Status()) {
		return
	}
	g.log.Debugf("command status: opcode 0x%04X status 0x%02X", e.CommandOpcode(), e.Status())

	if int(e.CommandOpcode()) == opLECreateConnection && g.mode == ModeConnecting {
		g.setMode(ModeIdle)
		g.emit(ConnectionFailed{Status: e.Status()})
	}
}

func (g *Gap) handleConnectionComplete(e evt.LEConnectionComplete) {
	if !hci.Success(e.Status()) {
		if g.mode == ModeConnecting || g.mode == ModeAdvertising {
			g.setMode(ModeIdle)
			g.emit(ConnectionFailed{Status: e.Status()})
		}
		return
	}

	if g.mode != ModeConnecting && g.mode != ModeAdvertising {
		g.log.Warnf("connection complete in mode %v, handle 0x%04X ignored",
			g.mode, e.ConnectionHandle())
		return
	}

	pa := e.PeerAddress()
	info := ConnectionInfo{
		Handle:             e.ConnectionHandle(),
		Role:               Role(e.Role()),
		PeerAddrType:       blecore.AddrType(e.PeerAddressType()),
		Interval:           e.ConnInterval(),
		Latency:            e.ConnLatency(),
		SupervisionTimeout: e.SupervisionTimeout(),
	}
	copy(info.PeerAddr[:], pa[:])

	if g.mode == ModeAdvertising {
		g.emit(AdvertisingStopped{})
	}

	g.conn = info
	g.tracked = true
	g.setMode(ModeConnected)
	g.emit(Connected{Info: info})
}

func (g *Gap) handleAdvertisingReport(e evt.LEAdvertisingReport) {
	if g.mode != ModeScanning {
		return
	}

	it := e.Reports()
	for {
		r, ok := it.Next()
		if !ok {
			break
		}
		d := DeviceFound{
			EventType: r.EventType,
			AddrType:  blecore.AddrType(r.AddressType),
			RSSI:      r.RSSI,
		}
		copy(d.Addr[:], r.Address[:])
		n := copy(d.Data[:], r.Data)
		d.DataLen = uint8(n)
		g.emit(d)
	}
}

func (g *Gap) handleDisconnectionComplete(e evt.DisconnectionComplete) {
	if !hci.Success(e.Status()) {
		return
	}
	if !g.tracked || e.ConnectionHandle() != g.conn.Handle {
		return
	}

	handle := g.conn.Handle
	g.conn = ConnectionInfo{}
	g.tracked = false
	g.setMode(ModeIdle)
	g.emit(Disconnected{Handle: handle, Reason: e.Reason()})
}

func (g *Gap) handleConnectionUpdateComplete(e evt.LEConnectionUpdateComplete) {
	if !hci.Success(e.Status()) {
		return
	}
	if !g.tracked || e.ConnectionHandle() != g.conn.Handle {
		return
	}

	g.conn.Interval = e.ConnInterval()
	g.conn.Latency = e.ConnLatency()
	g.conn.SupervisionTimeout = e.SupervisionTimeout()
	g.emit(ConnectionUpdated{
		Handle:             g.conn.Handle,
		Interval:           g.conn.Interval,
		Latency:            g.conn.Latency,
		SupervisionTimeout: g.conn.SupervisionTimeout,
	})
}

func (g *Gap) setMode(m Mode) {
	if g.mode != m {
		g.log.Debugf("mode %v -> %v", g.mode, m)
		g.mode = m
	}
}

func (g *Gap) invalidState(op string) error {
	return errors.Wrapf(ErrInvalidState, "%s in mode %v", op, g.mode)
}

// ensureCapacity rejects an operation before any of its commands are
// queued, so operations take effect all or nothing.
func (g *Gap) ensureCapacity(n int) error {
	if queueCap-g.cmds.len() < n {
		return errors.Wrapf(ErrCommandQueueFull, "need %d slots, %d pending", n, g.cmds.len())
	}
	return nil
}

// queue encodes one command into a reserved ring slot. Capacity is
// checked by the caller through ensureCapacity.
func (g *Gap) queue(c hci.Command) {
	s, ok := g.cmds.push()
	if !ok {
		// ensureCapacity guarantees a slot; reaching this is a bug.
		g.log.Errorf("command queue full, dropping opcode 0x%04X", c.OpCode())
		return
	}
	p, err := hci.EncodeCommand(s.b[:], c)
	if err != nil {
		g.cmds.unpush()
		g.log.Errorf("encode opcode 0x%04X: %v", c.OpCode(), err)
		return
	}
	s.n = len(p)
}

func (g *Gap) emit(e Event) {
	if !g.events.push(e) {
		g.log.Warnf("event queue full, dropping %T", e)
	}
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
