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
	"context"
	"time"

	"btcminer/board"
	"btcminer/common"

	"go.bug.st/serial"
)

// how long a single read on the port blocks before ctx is checked again
const serialPoll = 20 * time.Millisecond

// SerialDevice is a device behind a tty, e.g. the CDC ACM port
// (/dev/ttyACM0) of the board or a USB to UART adapter.
//
// The port is opened raw (8N1, no echo, no line editing) at the configured
// baud rate, jobs and replies are binary.
type SerialDevice struct {
	name    string
	port    string
	baud    int
	variant common.Variant
	p       serial.Port
}

func NewSerialDevice(name, port string, baud int, v common.Variant) *SerialDevice {
	return &SerialDevice{name: name, port: port, baud: baud, variant: v}
}

func (d *SerialDevice) Name() string {
	return d.name
}

func (d *SerialDevice) Variant() common.Variant {
	return d.variant
}

func (d *SerialDevice) Port() string {
	return d.port
}

func (d *SerialDevice) Baud() int {
	return d.baud
}

func (d *SerialDevice) Connect(ctx context.Context) error {
	if d.p != nil {
		return nil
	}
	p, err := board.OpenSerial(d.port, d.baud, serialPoll)
	if err != nil {
		return err
	}
	// whatever the device sent before we were listening is stale
	_ = p.ResetInputBuffer()
	d.p = p
	return nil
}

func (d *SerialDevice) Close() error {
	if d.p == nil {
		return nil
	}
	err := d.p.Close()
	d.p = nil
	return err
}

func (d *SerialDevice) Write(p []byte) (int, error) {
	if d.p == nil {
		return 0, ErrNotConnected
	}
	return d.p.Write(p)
}

func (d *SerialDevice) ReadContext(ctx context.Context, p []byte) (int, error) {
	if d.p == nil {
		return 0, ErrNotConnected
	}

	// a read returns 0, nil once serialPoll passed without data
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := d.p.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
}
