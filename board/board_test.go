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

package board_test

import (
	"bytes"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"btcminer/board"

	"github.com/neilotoole/slogt"
)

func TestSerialNumber(t *testing.T) {
	s := board.SerialNumber([3]uint32{0x00210043, 0x3432510e, 0x0039002f})
	if s != "0039002f-3432510e-00210043" {
		t.Fatalf("serial number is %q", s)
	}

	info := board.Info([3]uint32{1, 2, 3}, false)
	if info.USB != nil || info.Name != board.Name || info.Serial != "00000003-00000002-00000001" {
		t.Fatalf("unexpected board info %+v", info)
	}
	if info = board.Info([3]uint32{1, 2, 3}, true); info.USB == nil || info.USB.VendorID != 0x0483 {
		t.Fatalf("USB descriptor missing in %+v", info)
	}
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestSysTick(t *testing.T) {
	c := &clock{t: time.Unix(1000, 0)}
	// one cycle per millisecond, wrapping after 100
	st := board.NewSysTick(1000, 100, c.now)

	c.advance(250 * time.Millisecond)
	if cyc, wraps := st.Cycles(), st.Overflows(); cyc != 50 || wraps != 2 {
		t.Fatalf("after 250 cycles: cycles=%d overflows=%d, should be 50 and 2", cyc, wraps)
	}

	st.Reset()
	if cyc, wraps := st.Cycles(), st.Overflows(); cyc != 0 || wraps != 2 {
		t.Fatalf("after reset: cycles=%d overflows=%d, should be 0 and 2", cyc, wraps)
	}

	c.advance(120 * time.Millisecond)
	if cyc, wraps := st.Cycles(), st.Overflows(); cyc != 20 || wraps != 3 {
		t.Fatalf("after 120 more cycles: cycles=%d overflows=%d, should be 20 and 3", cyc, wraps)
	}

	if st.Period() != 100 {
		t.Fatalf("period is %d", st.Period())
	}
}

func TestSysTickCoreClock(t *testing.T) {
	c := &clock{t: time.Unix(0, 0)}
	st := board.NewSysTick(board.ClockHz, board.Reload, c.now)

	// 0.1s are 16.8M cycles, exactly one wrap of the 24 bit counter plus change
	c.advance(100 * time.Millisecond)
	total := uint64(st.Overflows())*uint64(st.Period()) + uint64(st.Cycles())
	if total != board.ClockHz/10 {
		t.Fatalf("counted %d cycles in 100ms, should be %d", total, board.ClockHz/10)
	}
	if st.Overflows() != 1 {
		t.Fatalf("overflows=%d, should be 1", st.Overflows())
	}
}

func TestLEDs(t *testing.T) {
	leds := board.NewLEDs(slogt.New(t), time.Millisecond)

	leds.Set(0)
	leds.Set(3)
	if !leds.Read(0) || leds.Read(1) || !leds.Read(3) {
		t.Fatalf("LEDs 0 and 3 should be set")
	}
	leds.Clear(0)
	if leds.Read(0) {
		t.Fatalf("LED 0 should be cleared")
	}

	leds.Blink(1, 3)
	leds.Blink(1, 0)
	leds.Wait()
	if leds.Blinks(1) != 1 {
		t.Fatalf("LED 1 blinked %d times, should be 1", leds.Blinks(1))
	}
	if leds.Read(1) {
		t.Fatalf("LED 1 should be off again after blinking")
	}
	if !leds.Read(3) {
		t.Fatalf("LED 3 should not be affected by blinking LED 1")
	}
}

func TestIRQ(t *testing.T) {
	var irq board.IRQ
	irq.Lock()
	if !irq.Masked() {
		t.Fatalf("interrupts should be masked")
	}
	irq.Unlock()
	if irq.Masked() {
		t.Fatalf("interrupts should not be masked")
	}
}

func TestLink(t *testing.T) {
	host, dev := net.Pipe()
	defer host.Close()

	link := board.NewLink(slogt.New(t), dev, 4)
	chunks := make(chan []byte, 16)
	link.OnReceive(func(chunk []byte) {
		chunks <- bytes.Clone(chunk)
	})

	done := make(chan error, 1)
	go func() {
		done <- link.Serve(context.Background())
	}()

	if _, err := host.Write([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}); err != nil {
		t.Fatal(err)
	}
	var got []byte
	for len(got) < 10 {
		select {
		case c := <-chunks:
			if len(c) > 4 {
				t.Fatalf("chunk %v exceeds the packet size", c)
			}
			got = append(got, c...)
		case <-time.After(time.Second):
			t.Fatalf("timed out, received %v", got)
		}
	}
	if !bytes.Equal(got, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}) {
		t.Fatalf("received %v", got)
	}

	// sending is limited to one packet
	go func() {
		n, err := link.Send([]byte{9, 8, 7, 6, 5})
		if n != 4 || err != nil {
			t.Errorf("Send returned (%d, %v), should be (4, nil)", n, err)
		}
	}()
	buf := make([]byte, 8)
	_ = host.SetReadDeadline(time.Now().Add(time.Second))
	n, err := host.Read(buf)
	if err != nil || !bytes.Equal(buf[:n], []byte{9, 8, 7, 6}) {
		t.Fatalf("host read (%v, %v)", buf[:n], err)
	}

	if err := link.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve should return nil after Close but returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Serve did not return after Close")
	}
	if _, err := link.Send([]byte{1}); err != board.ErrLinkClosed {
		t.Fatalf("Send after Close returned %v, should be %v", err, board.ErrLinkClosed)
	}
}
