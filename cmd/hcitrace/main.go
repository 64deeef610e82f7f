// hcitrace replays a captured HCI event trace through the GAP layer.
//
// Input is one hex-encoded HCI event packet per line (leading 0x04
// indicator included), e.g. the output of `btmon --write` post-processed
// to hex, or hand-written fixtures. Lines that do not decode are
// counted and skipped, matching the stack's drop-malformed policy.
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/haivivi/blecore"
	"github.com/haivivi/blecore/cache"
	"github.com/haivivi/blecore/gap"
	"github.com/haivivi/blecore/hci"
)

func main() {
	app := cli.NewApp()
	app.Name = "hcitrace"
	app.Usage = "replay a hex HCI event trace through the GAP state machine"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "file, f",
			Usage: "trace file to read (defaults to stdin)",
		},
		cli.BoolFlag{
			Name:  "json",
			Usage: "print GAP events as JSON",
		},
		cli.StringFlag{
			Name:  "cache",
			Usage: "record discovered devices into this cache file",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "trace-level logging",
		},
	}
	app.Action = replay

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func replay(c *cli.Context) error {
	if c.Bool("verbose") {
		blecore.SetLogLevelMax()
	}

	in := io.Reader(os.Stdin)
	if f := c.String("file"); f != "" {
		fh, err := os.Open(f)
		if err != nil {
			return errors.Wrap(err, "open trace")
		}
		defer fh.Close()
		in = fh
	}

	var store *cache.Store
	if f := c.String("cache"); f != "" {
		store = cache.New(f)
	}

	g := gap.New()
	if err := g.StartScanning(gap.ScanParams{}); err != nil {
		return errors.Wrap(err, "start scanning")
	}
	// No controller on the other end of a replay; discard the setup
	// commands the machine queued.
	for {
		if _, ok := g.NextCommand(); !ok {
			break
		}
	}

	var lines, dropped int
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines++

		raw, err := hex.DecodeString(strings.ReplaceAll(line, " ", ""))
		if err != nil {
			dropped++
			continue
		}
		e, ok := hci.DecodeEvent(raw)
		if !ok {
			dropped++
			continue
		}
		g.HandleEvent(e)

		if err := drain(g, c.Bool("json"), store); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "read trace")
	}

	fmt.Fprintf(os.Stderr, "%d packets, %d dropped, final mode %v\n", lines, dropped, g.Mode())
	return nil
}

func drain(g *gap.Gap, asJSON bool, store *cache.Store) error {
	for {
		e, ok := g.PollEvent()
		if !ok {
			return nil
		}

		if d, ok := e.(gap.DeviceFound); ok && store != nil {
			err := store.Put(cache.Device{
				Addr:     d.Addr.String(),
				AddrType: uint8(d.AddrType),
				RSSI:     d.RSSI,
				Data:     append([]byte(nil), d.AdvBytes()...),
				LastSeen: time.Now(),
			})
			if err != nil {
				return errors.Wrap(err, "cache put")
			}
		}

		if asJSON {
			out, err := jsoniter.MarshalToString(render(e))
			if err != nil {
				return err
			}
			fmt.Println(out)
		} else {
			fmt.Println(describe(e))
		}
	}
}

func render(e gap.Event) map[string]interface{} {
	m := map[string]interface{}{}
	switch e := e.(type) {
	case gap.AdvertisingStarted:
		m["event"] = "advertising_started"
	case gap.AdvertisingStopped:
		m["event"] = "advertising_stopped"
	case gap.Connected:
		m["event"] = "connected"
		m["handle"] = e.Info.Handle
		m["role"] = e.Info.Role.String()
		m["peer"] = e.Info.PeerAddr.String()
		m["interval"] = e.Info.Interval
	case gap.ConnectionFailed:
		m["event"] = "connection_failed"
		m["status"] = e.Status
	case gap.Disconnected:
		m["event"] = "disconnected"
		m["handle"] = e.Handle
		m["reason"] = e.Reason
	case gap.DeviceFound:
		m["event"] = "device_found"
		m["addr"] = e.Addr.String()
		m["addr_type"] = e.AddrType.String()
		m["rssi"] = e.RSSI
		m["data"] = hex.EncodeToString(e.AdvBytes())
	case gap.ConnectionUpdated:
		m["event"] = "connection_updated"
		m["handle"] = e.Handle
		m["interval"] = e.Interval
	case gap.DataLengthChanged:
		m["event"] = "data_length_changed"
		m["handle"] = e.Handle
		m["max_tx_octets"] = e.MaxTxOctets
	case gap.PHYUpdated:
		m["event"] = "phy_updated"
		m["handle"] = e.Handle
		m["tx_phy"] = e.TxPhy
		m["rx_phy"] = e.RxPhy
	default:
		m["event"] = fmt.Sprintf("%T", e)
	}
	return m
}

func describe(e gap.Event) string {
	switch e := e.(type) {
	case gap.DeviceFound:
		return fmt.Sprintf("device_found %s (%s) rssi %d data %x",
			e.Addr, e.AddrType, e.RSSI, e.AdvBytes())
	case gap.Connected:
		return fmt.Sprintf("connected 0x%04X %s peer %s interval %d",
			e.Info.Handle, e.Info.Role, e.Info.PeerAddr, e.Info.Interval)
	case gap.Disconnected:
		return fmt.Sprintf("disconnected 0x%04X reason 0x%02X", e.Handle, e.Reason)
	case gap.ConnectionFailed:
		return fmt.Sprintf("connection_failed status 0x%02X (%v)", e.Status, hci.ErrCommand(e.Status))
	default:
		return fmt.Sprintf("%#v", e)
	}
}
