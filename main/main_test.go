/*
* btcminer
* Copyright (C) 2026 The btcminer Authors
*
* This program is free software: you can redistribute it and/or modify
* it under the terms of the GNU General Public License as published by
* the Free Software Foundation, either version 3 of the License, or
* (at your option) any later version.
*
* This program is distributed in the hope that it will be useful,
* but WITHOUT ANY WARRANTY; without even the implied warranty of
* MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
* GNU General Public License for more details.
*
* You should have received a copy of the GNU General Public License
* along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package mcu

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"btcminer/common"
	"btcminer/internal/args"
	"btcminer/internal/testutils"

	"github.com/creack/pty"
	"github.com/neilotoole/slogt"
)

func TestLoadArgs(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "device.ini")
	err := os.WriteFile(cfg, []byte(`
[device]
policy = continue
link = uart
clock = 84000000
blinks = 2
`), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	originalArgs := os.Args
	defer func() { os.Args = originalArgs }()
	os.Args = []string{"placeholder", "-c", cfg, "--blinks", "3", "--variant", "header"}

	a := loadArgs()
	if a.Policy != common.KeepScanning || a.Link != args.LinkUART || a.ClockHz != 84_000_000 {
		t.Fatalf("ini values not applied: %+v", a)
	}
	if a.Blinks != 3 {
		t.Fatalf("cli should take precedence over the ini file, blinks=%d", a.Blinks)
	}
	if a.Variant != common.VariantHeader {
		t.Fatalf("variant is %v", a.Variant)
	}
	if a.BlinkPeriod != args.NewFromDefaults().BlinkPeriod {
		t.Fatalf("default blink period was overwritten: %v", a.BlinkPeriod)
	}
}

func TestMerge(t *testing.T) {
	bad := "morse"
	if _, err := (&UserArgs{Link: &bad}).Merge(args.NewFromDefaults()); err == nil {
		t.Fatalf("unknown link should be rejected")
	}
	if _, err := (&UserArgs{Variant: &bad}).Merge(args.NewFromDefaults()); err == nil {
		t.Fatalf("unknown variant should be rejected")
	}
	if _, err := (&UserArgs{Policy: &bad}).Merge(args.NewFromDefaults()); err == nil {
		t.Fatalf("unknown policy should be rejected")
	}
	zero, baud := 0, 9600
	if _, err := (&UserArgs{Baud: &zero}).Merge(args.NewFromDefaults()); err == nil {
		t.Fatalf("baud rate 0 should be rejected")
	}
	if a, err := (&UserArgs{Baud: &baud}).Merge(args.NewFromDefaults()); err != nil || a.Baud != baud {
		t.Fatalf("baud rate not applied: %d (%v)", a.Baud, err)
	}

	a, err := (&UserArgs{}).Merge(args.NewFromDefaults())
	if err != nil || a != args.NewFromDefaults() {
		t.Fatalf("empty merge changed the defaults: %+v, %v", a, err)
	}
}

func startBoard(t *testing.T, a args.Args) (net.Conn, <-chan testutils.Event, *Main) {
	t.Helper()
	host, dev := net.Pipe()

	r, w := io.Pipe()
	events := make(chan testutils.Event, 64)
	ctx, cancel := context.WithCancel(context.Background())
	go testutils.FilterLog(ctx, events, r)

	m := NewMainWithArgs(a, testutils.LogInit(w, "board"), dev)
	initFin := make(chan error, 1)
	go m.Run(initFin)
	if err := <-initFin; err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		m.Close()
		host.Close()
		w.Close()
		cancel()
	})
	return host, events, m
}

func waitFor(t *testing.T, events <-chan testutils.Event, msg string) testutils.Event {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Msg == msg {
				return e
			}
		case <-timeout:
			t.Fatalf("no %q event", msg)
		}
	}
}

func TestBoardMinesJob(t *testing.T) {
	for _, link := range []string{args.LinkCDC, args.LinkUART} {
		t.Run(link, func(t *testing.T) {
			a := args.NewFromDefaults()
			a.Link = link
			a.Banner = false
			a.BlinkPeriod = time.Millisecond
			host, events, m := startBoard(t, a)

			b := testutils.Block222222
			if _, err := host.Write(b.RawJob(a.Variant == common.VariantHeader, b.Nonce-100)); err != nil {
				t.Fatal(err)
			}
			if e := waitFor(t, events, "job published"); e.Nonce != b.Nonce-100 {
				t.Fatalf("published nonce %08x, should be %08x", e.Nonce, b.Nonce-100)
			}

			var reply [4]byte
			_ = host.SetReadDeadline(time.Now().Add(10 * time.Second))
			if _, err := io.ReadFull(host, reply[:]); err != nil {
				t.Fatal(err)
			}
			if n := binary.BigEndian.Uint32(reply[:]); n != b.Nonce {
				t.Fatalf("board replied %08x, should be %08x", n, b.Nonce)
			}
			if e := waitFor(t, events, "share found"); e.Nonce != b.Nonce {
				t.Fatalf("share event for %08x", e.Nonce)
			}

			deadline := time.Now().Add(time.Second)
			for m.State() != common.Idle {
				if time.Now().After(deadline) {
					t.Fatalf("board should be idle after the share")
				}
				time.Sleep(time.Millisecond)
			}
		})
	}
}

func TestBoardStopsWhenHostLeaves(t *testing.T) {
	a := args.NewFromDefaults()
	a.Banner = true
	a.ClockHz = 1000
	host, dev := net.Pipe()

	m := NewMainWithArgs(a, slogt.New(t), dev)
	initFin := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		m.Run(initFin)
		close(done)
	}()
	if err := <-initFin; err != nil {
		t.Fatal(err)
	}

	host.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("board kept running without a host")
	}
	m.Close()
}

func TestCloseWithoutRun(t *testing.T) {
	host, dev := net.Pipe()
	defer host.Close()

	m := NewMainWithArgs(args.NewFromDefaults(), slogt.New(t), dev)
	if err := m.Close(); err != nil {
		t.Fatalf("Close returned %v", err)
	}
	if _, err := host.Write([]byte{0}); err == nil {
		t.Fatalf("the link should be closed")
	}
}

func TestBoardOnPty(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("no pty available: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	a := args.NewFromDefaults()
	a.Port = tty.Name()
	a.Banner = false
	a.BlinkPeriod = time.Millisecond
	port, err := openPort(a)
	if err != nil {
		t.Fatal(err)
	}

	m := NewMainWithArgs(a, slogt.New(t), port)
	initFin := make(chan error, 1)
	go m.Run(initFin)
	if err := <-initFin; err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	// with echo or line buffering on the tty the reply would never be the
	// first thing coming back
	b := testutils.Block555444
	if _, err := ptmx.Write(b.RawJob(a.Variant == common.VariantHeader, b.Nonce-100)); err != nil {
		t.Fatal(err)
	}
	recv := make(chan []byte, 1)
	go func() {
		reply := make([]byte, 4)
		_, _ = io.ReadFull(ptmx, reply)
		recv <- reply
	}()
	select {
	case reply := <-recv:
		if n := binary.BigEndian.Uint32(reply); n != b.Nonce {
			t.Fatalf("board replied %08x, should be %08x", n, b.Nonce)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("no reply on the pty")
	}
}
