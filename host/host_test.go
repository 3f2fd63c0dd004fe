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

package host

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"sort"
	"testing"
	"time"

	"btcminer/common"
	"btcminer/internal/args"
	"btcminer/internal/testutils"
	"btcminer/work"

	"github.com/creack/pty"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"
)

// device answering work with a fixed reply, or never if reply is empty.
// stale is pending before any work was sent.
type scripted struct {
	variant common.Variant
	stale   []byte
	reply   []byte
	written bytes.Buffer
}

func (d *scripted) Name() string                      { return "scripted" }
func (d *scripted) Variant() common.Variant           { return d.variant }
func (d *scripted) Connect(ctx context.Context) error { return nil }
func (d *scripted) Close() error                      { return nil }

func (d *scripted) Write(p []byte) (int, error) {
	d.stale = append(d.stale, d.reply...)
	d.reply = nil
	return d.written.Write(p)
}

func (d *scripted) ReadContext(ctx context.Context, p []byte) (int, error) {
	if len(d.stale) == 0 {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	// one byte at a time, like a slow UART
	p[0] = d.stale[0]
	d.stale = d.stale[1:]
	return 1, nil
}

func be(n uint32) []byte {
	return []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}

func TestParseDevice(t *testing.T) {
	opts := NewOptions(slogt.New(t))

	d, err := ParseDevice("serial:/dev/ttyACM0:header", opts)
	require.NoError(t, err)
	require.IsType(t, &SerialDevice{}, d)
	require.Equal(t, common.VariantHeader, d.Variant())
	require.Equal(t, "/dev/ttyACM0", d.(*SerialDevice).Port())
	require.Equal(t, args.DefaultBaud, d.(*SerialDevice).Baud())

	d, err = ParseDevice("serial:/dev/ttyUSB1", opts)
	require.NoError(t, err)
	require.Equal(t, common.BuildVariant, d.Variant())

	d, err = ParseDevice("serial:/dev/ttyUSB1:9600:header", opts)
	require.NoError(t, err)
	require.Equal(t, 9600, d.(*SerialDevice).Baud())
	require.Equal(t, common.VariantHeader, d.Variant())
	_, err = ParseDevice("serial:/dev/ttyUSB1:0", opts)
	require.Error(t, err)

	d, err = ParseDevice("emulator", opts)
	require.NoError(t, err)
	require.Equal(t, "emulator-1", d.Name())
	d, err = ParseDevice("emulator:midstate", opts)
	require.NoError(t, err)
	require.Equal(t, "emulator-2", d.Name())
	require.Equal(t, common.VariantMidstate, d.Variant())

	d, err = ParseDevice("simulator", opts)
	require.NoError(t, err)
	require.Equal(t, common.VariantHeader, d.Variant())

	d, err = ParseDevice("usb", opts)
	require.NoError(t, err)
	require.IsType(t, &USBDevice{}, d)

	_, err = ParseDevice("fpga", opts)
	require.ErrorIs(t, err, ErrUnknownType)
	_, err = ParseDevice("serial:", opts)
	require.Error(t, err)
	_, err = ParseDevice("emulator:sha3", opts)
	require.Error(t, err)
}

func TestEncode(t *testing.T) {
	for _, b := range testutils.Blocks {
		h := b.BlockHeader()

		buf, err := Encode(nil, &h, common.VariantMidstate)
		require.NoError(t, err)
		require.Equal(t, b.Job, hex.EncodeToString(buf))

		buf, err = Encode(nil, &h, common.VariantHeader)
		require.NoError(t, err)
		require.Equal(t, b.Header, hex.EncodeToString(buf))
	}
}

func mineOn(t *testing.T, dev Device, b testutils.Block) {
	t.Helper()
	require.NoError(t, dev.Connect(context.Background()))
	defer dev.Close()

	m := NewMiner(slogt.New(t), dev, 10*time.Second)
	s, err := m.Mine(context.Background(), b.WithNonce(b.Nonce-100))
	require.NoError(t, err)
	require.Equal(t, b.Nonce, s.Nonce)
	require.Equal(t, b.Hash, s.Hash.Reverse().String())
	require.True(t, s.Block)
	require.Equal(t, dev.Name(), s.Device)
}

func TestMineEmulator(t *testing.T) {
	for _, v := range []common.Variant{common.VariantMidstate, common.VariantHeader} {
		for _, b := range testutils.Blocks {
			mineOn(t, NewEmulatorDevice(slogt.New(t), "emu", v), b)
		}
	}
}

func TestMineSimulator(t *testing.T) {
	for _, b := range testutils.Blocks {
		mineOn(t, NewSimulatorDevice("sim"), b)
	}
}

func TestMineTimeout(t *testing.T) {
	for _, dev := range []Device{
		NewEmulatorDevice(slogt.New(t), "emu", common.BuildVariant),
		NewSimulatorDevice("sim"),
		&scripted{},
	} {
		require.NoError(t, dev.Connect(context.Background()))
		m := NewMiner(slogt.New(t), dev, 300*time.Millisecond)
		// there is no hit in the last 255 nonces
		_, err := m.Mine(context.Background(), testutils.Block222222.WithNonce(0xFFFFFF00))
		require.ErrorIs(t, err, ErrTimeout, dev.Name())
		require.NoError(t, dev.Close())
	}
}

func TestMineInvalidShare(t *testing.T) {
	b := testutils.Block555444
	dev := &scripted{variant: common.VariantMidstate, reply: []byte{0xf9, 0xe5, 0x88, 0xcf}}
	m := NewMiner(slogt.New(t), dev, time.Second)

	s, err := m.Mine(context.Background(), b.WithNonce(b.Nonce-100))
	require.ErrorIs(t, err, ErrInvalidShare)
	require.Equal(t, b.Nonce+1, s.Nonce)
	require.Equal(t, b.Job[:len(b.Job)-8], hex.EncodeToString(dev.written.Bytes())[:len(b.Job)-8])
}

func TestMineShareBelowBlockTarget(t *testing.T) {
	b := testutils.Block222222
	next := b.NextHit
	dev := &scripted{variant: common.VariantHeader, reply: be(next)}
	m := NewMiner(slogt.New(t), dev, time.Second)

	s, err := m.Mine(context.Background(), b.WithNonce(b.Nonce+1))
	require.NoError(t, err)
	require.Equal(t, next, s.Nonce)
	require.False(t, s.Block)
}

func TestMineDropsStaleReplies(t *testing.T) {
	prev, b := testutils.Block222222, testutils.Block555444

	// a share of the previous job is already waiting, another one arrives
	// right after the new work
	dev := &scripted{
		variant: common.VariantMidstate,
		stale:   be(prev.NextHit),
		reply:   append(be(prev.NextHit+7), be(b.Nonce)...),
	}
	m := NewMiner(slogt.New(t), dev, time.Second)

	s, err := m.Mine(context.Background(), b.WithNonce(b.Nonce-100))
	require.NoError(t, err)
	require.Equal(t, b.Nonce, s.Nonce)
	require.True(t, s.Block)
	require.Equal(t, b.Job[:len(b.Job)-8], hex.EncodeToString(dev.written.Bytes())[:len(b.Job)-8])
}

func TestMineKeepScanningBackToBack(t *testing.T) {
	for _, v := range []common.Variant{common.VariantMidstate, common.VariantHeader} {
		a := args.NewFromDefaults()
		a.Variant = v
		a.Policy = common.KeepScanning
		a.Banner = false
		a.BlinkPeriod = time.Millisecond
		dev := NewEmulatorDeviceWithArgs(slogt.New(t), "emu", a)
		require.NoError(t, dev.Connect(context.Background()))

		m := NewMiner(slogt.New(t), dev, 10*time.Second)
		for _, b := range []testutils.Block{testutils.Block222222, testutils.Block555444, testutils.Block222222} {
			s, err := m.Mine(context.Background(), b.WithNonce(b.Nonce-100))
			require.NoError(t, err, v)
			require.Equal(t, b.Nonce, s.Nonce, v)
			require.True(t, s.Block, v)
		}
		require.NoError(t, dev.Close())
	}
}

func TestProbe(t *testing.T) {
	dev := NewEmulatorDevice(slogt.New(t), "emu", common.BuildVariant)
	require.NoError(t, dev.Connect(context.Background()))
	defer dev.Close()
	require.True(t, Probe(context.Background(), slogt.New(t), dev, 10*time.Second))

	require.False(t, Probe(context.Background(), slogt.New(t), &scripted{}, 100*time.Millisecond))
}

func TestSerialDevice(t *testing.T) {
	d := NewSerialDevice("tty", "/nonexistent/tty", 115200, common.VariantMidstate)
	_, err := d.Write([]byte{1})
	require.ErrorIs(t, err, ErrNotConnected)
	_, err = d.ReadContext(context.Background(), make([]byte, 1))
	require.ErrorIs(t, err, ErrNotConnected)
	require.Error(t, d.Connect(context.Background()))
}

// the line discipline of a tty must not touch binary frames
func TestSerialDeviceRaw(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("no pty available: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	d := NewSerialDevice("pty", tty.Name(), 57600, common.VariantMidstate)
	require.NoError(t, d.Connect(context.Background()))
	defer d.Close()
	require.Equal(t, 57600, d.Baud())

	// CR and LF inside a reply, no newline at the end
	reply := []byte{0x00, 0x0d, 0x0a, 0x01}
	_, err = ptmx.Write(reply)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got := make([]byte, 0, len(reply))
	buf := make([]byte, len(reply))
	for len(got) < len(reply) {
		n, err := d.ReadContext(ctx, buf[:len(reply)-len(got)])
		require.NoError(t, err, "after %x", got)
		got = append(got, buf[:n]...)
	}
	require.Equal(t, reply, got)

	// nothing echoed back, LF not expanded to CR LF
	job := []byte{0x0a, 0x0d, 0x64, 0x62}
	_, err = d.Write(job)
	require.NoError(t, err)
	recv := make(chan []byte, 1)
	go func() {
		b := make([]byte, len(job))
		_, _ = io.ReadFull(ptmx, b)
		recv <- b
	}()
	select {
	case b := <-recv:
		require.Equal(t, job, b)
	case <-time.After(2 * time.Second):
		t.Fatalf("job did not arrive on the other end")
	}

	// an idle line times out with the context
	ctx, cancel = context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = d.ReadContext(ctx, buf)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManager(t *testing.T) {
	log := slogt.New(t)
	devices := []Device{
		NewEmulatorDevice(log, "emu-1", common.VariantMidstate),
		NewEmulatorDevice(log, "emu-2", common.VariantHeader),
		NewSimulatorDevice("sim"),
	}
	headers := []work.BlockHeader{
		testutils.Block222222.WithNonce(testutils.Block222222.Nonce - 100),
		testutils.Block555444.WithNonce(testutils.Block555444.Nonce - 100),
		testutils.Block222222.WithNonce(0xFFFFFF00),
		testutils.Block555444.WithNonce(testutils.Block555444.Nonce - 250),
	}

	var results []Result
	m := NewManager(log, devices, time.Second, time.Minute)
	err := m.Run(context.Background(), headers, func(r Result) {
		results = append(results, r)
	})
	require.NoError(t, err)
	require.Len(t, results, len(headers))

	sort.Slice(results, func(i, j int) bool { return results[i].Job < results[j].Job })
	want := []uint32{testutils.Block222222.Nonce, testutils.Block555444.Nonce, 0, testutils.Block555444.Nonce}
	for i, r := range results {
		require.Equal(t, i, r.Job)
		if i == 2 {
			require.ErrorIs(t, r.Err, ErrTimeout)
			continue
		}
		require.NoError(t, r.Err, r.Device)
		require.Equal(t, want[i], r.Share.Nonce)
		require.True(t, r.Share.Block)
	}

	err = NewManager(log, nil, time.Second, time.Minute).Run(context.Background(), headers, func(Result) {})
	require.Error(t, err)
}

func TestManagerCancel(t *testing.T) {
	log := slogt.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(log, []Device{&scripted{}}, time.Hour, time.Minute)

	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx, []work.BlockHeader{testutils.Block222222.BlockHeader()}, func(Result) {})
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.False(t, errors.Is(err, ErrTimeout))
	case <-time.After(5 * time.Second):
		t.Fatalf("manager did not stop")
	}
}
