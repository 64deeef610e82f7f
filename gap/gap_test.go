package gap

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"

	"github.com/haivivi/blecore"
	"github.com/haivivi/blecore/hci"
	"github.com/haivivi/blecore/hci/evt"
)

var peer = blecore.Addr{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}

func opcode(p *PendingCommand) uint16 {
	b := p.Packet()
	return uint16(b[1]) | uint16(b[2])<<8
}

func drainCommands(g *Gap) []PendingCommand {
	var out []PendingCommand
	for {
		c, ok := g.NextCommand()
		if !ok {
			return out
		}
		out = append(out, c)
	}
}

func drainEvents(g *Gap) []Event {
	var out []Event
	for {
		e, ok := g.PollEvent()
		if !ok {
			return out
		}
		out = append(out, e)
	}
}

// connectionComplete builds an LE Connection Complete with the given
// status, handle and role.
func connectionComplete(status uint8, handle uint16, role uint8) evt.LEConnectionComplete {
	return evt.LEConnectionComplete{
		0x01, status, byte(handle), byte(handle >> 8), role,
		0x00, // peer addr type: public
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06,
		0x28, 0x00, // interval
		0x00, 0x00, // latency
		0x58, 0x02, // supervision timeout
		0x00,
	}
}

func disconnectionComplete(status uint8, handle uint16, reason uint8) evt.DisconnectionComplete {
	return evt.DisconnectionComplete{status, byte(handle), byte(handle >> 8), reason}
}

// enter drives a fresh machine into the given mode.
func enter(t *testing.T, m Mode) *Gap {
	t.Helper()
	g := New()
	var err error
	switch m {
	case ModeIdle:
	case ModeAdvertising:
		err = g.StartAdvertising(AdvertisingParams{})
	case ModeScanning:
		err = g.StartScanning(ScanParams{})
	case ModeConnecting:
		err = g.Connect(peer, blecore.AddrTypePublic, ConnParams{})
	case ModeConnected:
		if err = g.Connect(peer, blecore.AddrTypePublic, ConnParams{}); err == nil {
			g.HandleEvent(connectionComplete(0x00, 0x0040, hci.RoleCentral))
		}
	}
	if err != nil {
		t.Fatalf("enter %v: %v", m, err)
	}
	if g.Mode() != m {
		t.Fatalf("enter %v: mode is %v", m, g.Mode())
	}
	drainCommands(g)
	drainEvents(g)
	return g
}

func TestInvalidStateMatrix(t *testing.T) {
	allModes := []Mode{ModeIdle, ModeAdvertising, ModeScanning, ModeConnecting, ModeConnected}

	ops := []struct {
		name  string
		valid map[Mode]bool
		call  func(*Gap) error
	}{
		{"StartAdvertising", map[Mode]bool{ModeIdle: true},
			func(g *Gap) error { return g.StartAdvertising(AdvertisingParams{}) }},
		{"StopAdvertising", map[Mode]bool{ModeAdvertising: true},
			func(g *Gap) error { return g.StopAdvertising() }},
		{"StartScanning", map[Mode]bool{ModeIdle: true},
			func(g *Gap) error { return g.StartScanning(ScanParams{}) }},
		{"StopScanning", map[Mode]bool{ModeScanning: true},
			func(g *Gap) error { return g.StopScanning() }},
		{"Connect", map[Mode]bool{ModeIdle: true, ModeScanning: true},
			func(g *Gap) error { return g.Connect(peer, blecore.AddrTypePublic, ConnParams{}) }},
		{"CancelConnect", map[Mode]bool{ModeConnecting: true},
			func(g *Gap) error { return g.CancelConnect() }},
		{"Disconnect", map[Mode]bool{ModeConnected: true},
			func(g *Gap) error { return g.Disconnect(0x0040, 0x13) }},
		{"RequestDataLength", map[Mode]bool{ModeConnected: true},
			func(g *Gap) error { return g.RequestDataLength(0x0040, 251, 2120) }},
		{"RequestPhyUpdate", map[Mode]bool{ModeConnected: true},
			func(g *Gap) error { return g.RequestPhyUpdate(0x0040, hci.Phy2M, hci.Phy2M) }},
		{"UpdateConnection", map[Mode]bool{ModeConnected: true},
			func(g *Gap) error { return g.UpdateConnection(0x0040, UpdateParams{}) }},
		{"SetRandomAddress", map[Mode]bool{ModeIdle: true},
			func(g *Gap) error { return g.SetRandomAddress(peer) }},
	}

	for _, op := range ops {
		for _, m := range allModes {
			g := enter(t, m)
			err := op.call(g)
			if op.valid[m] {
				if err != nil {
					t.Errorf("%s in %v: unexpected error %v", op.name, m, err)
				}
				continue
			}
			if errors.Cause(err) != ErrInvalidState {
				t.Errorf("%s in %v: error = %v, want ErrInvalidState", op.name, m, err)
			}
			if g.Mode() != m {
				t.Errorf("%s in %v: mode changed to %v on rejected op", op.name, m, g.Mode())
			}
		}
	}
}

func TestStartAdvertisingSequence(t *testing.T) {
	g := New()
	err := g.StartAdvertising(AdvertisingParams{
		AdvData: []byte{0x02, 0x01, 0x06, 0x03, 0x08, 'g', 'o', 0x00},
	})
	if err != nil {
		t.Fatal(err)
	}
	if g.Mode() != ModeAdvertising {
		t.Fatalf("mode = %v", g.Mode())
	}

	cc := drainCommands(g)
	if len(cc) != 3 {
		t.Fatalf("queued %d commands, want 3", len(cc))
	}
	want := []uint16{0x2006, 0x2008, 0x200A}
	for i := range cc {
		if opcode(&cc[i]) != want[i] {
			t.Fatalf("command %d opcode = 0x%04X, want 0x%04X", i, opcode(&cc[i]), want[i])
		}
	}

	// The advertising data command carries the payload length and bytes.
	data := cc[1].Packet()
	if data[4] != 8 {
		t.Fatalf("adv data length byte = %d", data[4])
	}
	if !bytes.Equal(data[5:13], []byte{0x02, 0x01, 0x06, 0x03, 0x08, 'g', 'o', 0x00}) {
		t.Fatalf("adv data = % X", data[5:13])
	}

	ee := drainEvents(g)
	if len(ee) != 1 {
		t.Fatalf("events = %d, want 1", len(ee))
	}
	if _, ok := ee[0].(AdvertisingStarted); !ok {
		t.Fatalf("event = %#v", ee[0])
	}
}

func TestStartAdvertisingWithScanResponse(t *testing.T) {
	g := New()
	err := g.StartAdvertising(AdvertisingParams{
		AdvData:     []byte{0x02, 0x01, 0x06},
		ScanRspData: []byte{0x05, 0x09, 't', 'e', 's', 't'},
	})
	if err != nil {
		t.Fatal(err)
	}
	cc := drainCommands(g)
	want := []uint16{0x2006, 0x2008, 0x2009, 0x200A}
	if len(cc) != len(want) {
		t.Fatalf("queued %d commands, want %d", len(cc), len(want))
	}
	for i := range cc {
		if opcode(&cc[i]) != want[i] {
			t.Fatalf("command %d opcode = 0x%04X", i, opcode(&cc[i]))
		}
	}
}

func TestStartScanningSequence(t *testing.T) {
	g := New()
	if err := g.StartScanning(ScanParams{}); err != nil {
		t.Fatal(err)
	}
	if g.Mode() != ModeScanning {
		t.Fatalf("mode = %v", g.Mode())
	}

	cc := drainCommands(g)
	if len(cc) != 2 {
		t.Fatalf("queued %d commands, want 2", len(cc))
	}
	if b := cc[0].Packet(); b[1] != 0x0B {
		t.Fatalf("first opcode low byte = 0x%02X, want 0x0B", b[1])
	}
	if b := cc[1].Packet(); b[1] != 0x0C {
		t.Fatalf("second opcode low byte = 0x%02X, want 0x0C", b[1])
	}
}

func TestConnectFromScanning(t *testing.T) {
	g := enter(t, ModeScanning)
	if err := g.Connect(peer, blecore.AddrTypePublic, ConnParams{}); err != nil {
		t.Fatal(err)
	}
	if g.Mode() != ModeConnecting {
		t.Fatalf("mode = %v", g.Mode())
	}

	cc := drainCommands(g)
	if len(cc) != 2 {
		t.Fatalf("queued %d commands, want 2", len(cc))
	}
	if opcode(&cc[0]) != 0x200C {
		t.Fatalf("first opcode = 0x%04X, want scan enable", opcode(&cc[0]))
	}
	// Scan disable, not enable.
	if b := cc[0].Packet(); b[4] != 0x00 {
		t.Fatalf("scan enable byte = %d, want 0", b[4])
	}
	if opcode(&cc[1]) != 0x200D {
		t.Fatalf("second opcode = 0x%04X, want create connection", opcode(&cc[1]))
	}
	// Peer address flows into the create connection command.
	if b := cc[1].Packet(); !bytes.Equal(b[10:16], peer[:]) {
		t.Fatalf("peer address = % X", b[10:16])
	}
}

func TestConnectionCompleteWhileAdvertising(t *testing.T) {
	g := enter(t, ModeAdvertising)

	g.HandleEvent(connectionComplete(0x00, 0x0040, hci.RolePeripheral))

	if g.Mode() != ModeConnected {
		t.Fatalf("mode = %v", g.Mode())
	}
	info, ok := g.Connection()
	if !ok || info.Handle != 0x0040 {
		t.Fatalf("tracked = %v %+v", ok, info)
	}
	if info.Role != RolePeripheral {
		t.Fatalf("role = %v", info.Role)
	}
	if info.PeerAddr != peer || info.Interval != 0x0028 {
		t.Fatalf("info = %+v", info)
	}

	ee := drainEvents(g)
	if len(ee) != 2 {
		t.Fatalf("events = %v", ee)
	}
	if _, ok := ee[0].(AdvertisingStopped); !ok {
		t.Fatalf("first event = %#v, want AdvertisingStopped", ee[0])
	}
	conn, ok := ee[1].(Connected)
	if !ok || conn.Info.Role != RolePeripheral {
		t.Fatalf("second event = %#v, want Connected{peripheral}", ee[1])
	}
}

func TestConnectionCompleteFailure(t *testing.T) {
	g := enter(t, ModeConnecting)

	g.HandleEvent(connectionComplete(0x3E, 0x0000, hci.RoleCentral))

	if g.Mode() != ModeIdle {
		t.Fatalf("mode = %v", g.Mode())
	}
	ee := drainEvents(g)
	if len(ee) != 1 {
		t.Fatalf("events = %v", ee)
	}
	cf, ok := ee[0].(ConnectionFailed)
	if !ok || cf.Status != 0x3E {
		t.Fatalf("event = %#v", ee[0])
	}

	// A failure while idle is ignored.
	g.HandleEvent(connectionComplete(0x3E, 0x0000, hci.RoleCentral))
	if len(drainEvents(g)) != 0 || g.Mode() != ModeIdle {
		t.Fatal("failure event while idle not ignored")
	}
}

func TestCommandStatusFailsConnect(t *testing.T) {
	g := enter(t, ModeConnecting)

	// Command Status: status 0x0C (disallowed), for LE Create Connection.
	g.HandleEvent(evt.CommandStatus{0x0C, 0x01, 0x0D, 0x20})

	if g.Mode() != ModeIdle {
		t.Fatalf("mode = %v", g.Mode())
	}
	ee := drainEvents(g)
	if len(ee) != 1 {
		t.Fatalf("events = %v", ee)
	}
	if cf, ok := ee[0].(ConnectionFailed); !ok || cf.Status != 0x0C {
		t.Fatalf("event = %#v", ee[0])
	}

	// A failed status for some other command changes nothing.
	g2 := enter(t, ModeConnecting)
	g2.HandleEvent(evt.CommandStatus{0x0C, 0x01, 0x0A, 0x20})
	if g2.Mode() != ModeConnecting || len(drainEvents(g2)) != 0 {
		t.Fatal("unrelated command status disturbed the machine")
	}
}

func TestDisconnectionComplete(t *testing.T) {
	g := enter(t, ModeConnected)

	// Mismatched handle: no state change, no event.
	g.HandleEvent(disconnectionComplete(0x00, 0x0041, 0x13))
	if g.Mode() != ModeConnected || len(drainEvents(g)) != 0 {
		t.Fatal("mismatched handle not ignored")
	}

	// Failure status: ignored.
	g.HandleEvent(disconnectionComplete(0x02, 0x0040, 0x13))
	if g.Mode() != ModeConnected || len(drainEvents(g)) != 0 {
		t.Fatal("failed disconnection not ignored")
	}

	// Matching success: back to idle, connection cleared.
	g.HandleEvent(disconnectionComplete(0x00, 0x0040, 0x13))
	if g.Mode() != ModeIdle {
		t.Fatalf("mode = %v", g.Mode())
	}
	if _, ok := g.Connection(); ok {
		t.Fatal("connection still tracked")
	}
	ee := drainEvents(g)
	if len(ee) != 1 {
		t.Fatalf("events = %v", ee)
	}
	d, ok := ee[0].(Disconnected)
	if !ok || d.Handle != 0x0040 || d.Reason != 0x13 {
		t.Fatalf("event = %#v", ee[0])
	}
}

func TestAdvertisingReportOnlyWhileScanning(t *testing.T) {
	rep := evt.LEAdvertisingReport{0x02, 0x01,
		0x00, 0x00,
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
		0x03, 0x02, 0x01, 0x06,
		0xC4,
	}

	g := enter(t, ModeIdle)
	g.HandleEvent(rep)
	if len(drainEvents(g)) != 0 {
		t.Fatal("report emitted while idle")
	}

	g = enter(t, ModeScanning)
	g.HandleEvent(rep)
	ee := drainEvents(g)
	if len(ee) != 1 {
		t.Fatalf("events = %v", ee)
	}
	d, ok := ee[0].(DeviceFound)
	if !ok {
		t.Fatalf("event = %#v", ee[0])
	}
	if d.Addr.String() != "ff:ee:dd:cc:bb:aa" {
		t.Fatalf("addr = %v", d.Addr)
	}
	if d.RSSI != -60 || !bytes.Equal(d.AdvBytes(), []byte{0x02, 0x01, 0x06}) {
		t.Fatalf("report = %+v", d)
	}
}

func TestDataLengthAndPhyEvents(t *testing.T) {
	g := enter(t, ModeConnected)

	g.HandleEvent(evt.LEDataLengthChange{0x07, 0x40, 0x00, 0xFB, 0x00, 0x48, 0x08, 0xFB, 0x00, 0x48, 0x08})
	g.HandleEvent(evt.LEPHYUpdateComplete{0x0C, 0x00, 0x40, 0x00, 0x02, 0x02})

	ee := drainEvents(g)
	if len(ee) != 2 {
		t.Fatalf("events = %v", ee)
	}
	dl, ok := ee[0].(DataLengthChanged)
	if !ok || dl.MaxTxOctets != 251 || dl.MaxTxTime != 2120 {
		t.Fatalf("event = %#v", ee[0])
	}
	pu, ok := ee[1].(PHYUpdated)
	if !ok || pu.TxPhy != hci.Phy2M || pu.RxPhy != hci.Phy2M {
		t.Fatalf("event = %#v", ee[1])
	}
}

func TestConnectionUpdateComplete(t *testing.T) {
	g := enter(t, ModeConnected)

	g.HandleEvent(evt.LEConnectionUpdateComplete{0x03, 0x00, 0x40, 0x00, 0x50, 0x00, 0x01, 0x00, 0x00, 0x04})

	info, _ := g.Connection()
	if info.Interval != 0x0050 || info.Latency != 1 || info.SupervisionTimeout != 0x0400 {
		t.Fatalf("info = %+v", info)
	}
	ee := drainEvents(g)
	if len(ee) != 1 {
		t.Fatalf("events = %v", ee)
	}
	cu, ok := ee[0].(ConnectionUpdated)
	if !ok || cu.Interval != 0x0050 {
		t.Fatalf("event = %#v", ee[0])
	}

	// Wrong handle: ignored.
	g.HandleEvent(evt.LEConnectionUpdateComplete{0x03, 0x00, 0x41, 0x00, 0x60, 0x00, 0x00, 0x00, 0x00, 0x04})
	info, _ = g.Connection()
	if info.Interval != 0x0050 || len(drainEvents(g)) != 0 {
		t.Fatal("update for foreign handle not ignored")
	}
}

func TestCommandQueueBounds(t *testing.T) {
	g := New()

	// 16 single-command operations fill the queue.
	for i := 0; i < queueCap; i++ {
		if err := g.SetRandomAddress(peer); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	// The 17th fails with CommandQueueFull.
	err := g.SetRandomAddress(peer)
	if errors.Cause(err) != ErrCommandQueueFull {
		t.Fatalf("error = %v, want ErrCommandQueueFull", err)
	}

	// Draining one slot allows one more enqueue.
	if _, ok := g.NextCommand(); !ok {
		t.Fatal("drain failed")
	}
	if err := g.SetRandomAddress(peer); err != nil {
		t.Fatalf("enqueue after drain: %v", err)
	}

	// A multi-command operation is rejected whole when it does not fit.
	g2 := New()
	for i := 0; i < queueCap-1; i++ {
		if err := g2.SetRandomAddress(peer); err != nil {
			t.Fatal(err)
		}
	}
	err = g2.StartScanning(ScanParams{})
	if errors.Cause(err) != ErrCommandQueueFull {
		t.Fatalf("error = %v, want ErrCommandQueueFull", err)
	}
	if g2.Mode() != ModeIdle {
		t.Fatalf("mode = %v after rejected op", g2.Mode())
	}
	if g2.cmds.len() != queueCap-1 {
		t.Fatalf("partial enqueue: %d commands", g2.cmds.len())
	}
}

func TestPollEmpty(t *testing.T) {
	g := New()
	if _, ok := g.NextCommand(); ok {
		t.Fatal("command from empty queue")
	}
	if _, ok := g.PollEvent(); ok {
		t.Fatal("event from empty queue")
	}
}
