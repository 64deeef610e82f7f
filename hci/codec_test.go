package hci

import (
	"bytes"
	"testing"

	"github.com/haivivi/blecore/hci/cmd"
	"github.com/haivivi/blecore/hci/evt"
)

func TestEncodeCommand(t *testing.T) {
	var buf [MaxCommandPktLen]byte

	pkt, err := EncodeCommand(buf[:], &cmd.LESetScanEnable{LEScanEnable: 1, FilterDuplicates: 1})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x01, 0x0C, 0x20, 0x02, 0x01, 0x01}
	if !bytes.Equal(pkt, want) {
		t.Fatalf("scan enable = % X, want % X", pkt, want)
	}

	pkt, err = EncodeCommand(buf[:], &cmd.Disconnect{ConnectionHandle: 0x0040, Reason: 0x13})
	if err != nil {
		t.Fatal(err)
	}
	want = []byte{0x01, 0x06, 0x04, 0x03, 0x40, 0x00, 0x13}
	if !bytes.Equal(pkt, want) {
		t.Fatalf("disconnect = % X, want % X", pkt, want)
	}

	// Zero-parameter command still carries the full header.
	pkt, err = EncodeCommand(buf[:], &cmd.LECreateConnectionCancel{})
	if err != nil {
		t.Fatal(err)
	}
	want = []byte{0x01, 0x0E, 0x20, 0x00}
	if !bytes.Equal(pkt, want) {
		t.Fatalf("create conn cancel = % X, want % X", pkt, want)
	}
}

func TestEncodeCommandShortBuffer(t *testing.T) {
	var buf [4]byte
	if _, err := EncodeCommand(buf[:], &cmd.LESetScanEnable{}); err == nil {
		t.Fatal("no error for short buffer")
	}
}

func TestDecodeEventDispatch(t *testing.T) {
	cases := []struct {
		name string
		pkt  []byte
		want func(evt.Event) bool
	}{
		{
			"command complete",
			[]byte{0x04, 0x0E, 0x04, 0x01, 0x0A, 0x20, 0x00},
			func(e evt.Event) bool {
				cc, ok := e.(evt.CommandComplete)
				return ok && cc.CommandOpcode() == 0x200A && cc.Status() == 0x00
			},
		},
		{
			"command status",
			[]byte{0x04, 0x0F, 0x04, 0x0C, 0x01, 0x0D, 0x20},
			func(e evt.Event) bool {
				cs, ok := e.(evt.CommandStatus)
				return ok && cs.Status() == 0x0C && cs.CommandOpcode() == 0x200D
			},
		},
		{
			"disconnection complete",
			[]byte{0x04, 0x05, 0x04, 0x00, 0x40, 0x00, 0x13},
			func(e evt.Event) bool {
				dc, ok := e.(evt.DisconnectionComplete)
				return ok && dc.ConnectionHandle() == 0x0040 && dc.Reason() == 0x13
			},
		},
		{
			"le connection complete",
			[]byte{0x04, 0x3E, 0x13,
				0x01, 0x00, 0x40, 0x00, 0x01, 0x00,
				0x01, 0x02, 0x03, 0x04, 0x05, 0x06,
				0x28, 0x00, 0x00, 0x00, 0x58, 0x02, 0x00},
			func(e evt.Event) bool {
				cc, ok := e.(evt.LEConnectionComplete)
				return ok && cc.ConnectionHandle() == 0x0040 &&
					cc.Role() == RolePeripheral && cc.ConnInterval() == 0x0028
			},
		},
		{
			"le data length change",
			[]byte{0x04, 0x3E, 0x0B,
				0x07, 0x40, 0x00, 0xFB, 0x00, 0x48, 0x08, 0xFB, 0x00, 0x48, 0x08},
			func(e evt.Event) bool {
				dl, ok := e.(evt.LEDataLengthChange)
				return ok && dl.MaxTxOctets() == 0x00FB && dl.MaxTxTime() == 0x0848
			},
		},
		{
			"le phy update complete",
			[]byte{0x04, 0x3E, 0x06, 0x0C, 0x00, 0x40, 0x00, 0x02, 0x02},
			func(e evt.Event) bool {
				pu, ok := e.(evt.LEPHYUpdateComplete)
				return ok && pu.TxPhy() == Phy2M && pu.RxPhy() == Phy2M
			},
		},
	}

	for _, c := range cases {
		e, ok := DecodeEvent(c.pkt)
		if !ok {
			t.Fatalf("%s: decode failed", c.name)
		}
		if !c.want(e) {
			t.Fatalf("%s: wrong decode: %#v", c.name, e)
		}
	}
}

func TestDecodeEventMalformed(t *testing.T) {
	bad := [][]byte{
		nil,
		{},
		{0x04},
		{0x04, 0x0E},
		{0x02, 0x0E, 0x00},                   // wrong indicator
		{0x04, 0x0E, 0x05, 0x01, 0x0A, 0x20}, // plen lies
		{0x04, 0x77, 0x01, 0x00},             // unknown event code
		{0x04, 0x3E, 0x01, 0x7F},             // unknown subevent
		{0x04, 0x3E, 0x00},                   // empty LE meta
		{0x04, 0x05, 0x02, 0x00, 0x40},       // truncated disconnection
		{0x04, 0x3E, 0x05, 0x01, 0x00, 0x40, 0x00, 0x01}, // truncated conn complete
	}
	for i, b := range bad {
		if e, ok := DecodeEvent(b); ok {
			t.Fatalf("case %d: decoded malformed input as %#v", i, e)
		}
	}
}
