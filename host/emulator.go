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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"btcminer/common"
	"btcminer/internal/args"
	mcu "btcminer/main"
)

// EmulatorDevice runs the firmware on an emulated board inside this process.
type EmulatorDevice struct {
	log   *slog.Logger
	name  string
	args  args.Args
	board *mcu.Main
	conn  net.Conn
}

func NewEmulatorDevice(log *slog.Logger, name string, v common.Variant) *EmulatorDevice {
	a := args.NewFromDefaults()
	a.Variant = v
	a.Banner = false
	a.BlinkPeriod = time.Millisecond
	return NewEmulatorDeviceWithArgs(log, name, a)
}

func NewEmulatorDeviceWithArgs(log *slog.Logger, name string, a args.Args) *EmulatorDevice {
	return &EmulatorDevice{
		log:  log.With("device", name),
		name: name,
		args: a,
	}
}

func (d *EmulatorDevice) Name() string {
	return d.name
}

func (d *EmulatorDevice) Variant() common.Variant {
	return d.args.Variant
}

func (d *EmulatorDevice) Connect(ctx context.Context) error {
	if d.board != nil {
		return nil
	}

	host, dev := net.Pipe()
	d.board = mcu.NewMainWithArgs(d.args, d.log, dev)
	initFin := make(chan error, 1)
	go d.board.Run(initFin)

	select {
	case err := <-initFin:
		if err != nil {
			host.Close()
			d.board = nil
			return fmt.Errorf("start emulated board: %w", err)
		}
	case <-ctx.Done():
		host.Close()
		d.board = nil
		return ctx.Err()
	}
	d.conn = host
	return nil
}

func (d *EmulatorDevice) Close() error {
	if d.board == nil {
		return nil
	}
	err := d.board.Close()
	d.conn.Close()
	d.board, d.conn = nil, nil
	return err
}

func (d *EmulatorDevice) Write(p []byte) (int, error) {
	if d.conn == nil {
		return 0, ErrNotConnected
	}
	return d.conn.Write(p)
}

func (d *EmulatorDevice) ReadContext(ctx context.Context, p []byte) (int, error) {
	if d.conn == nil {
		return 0, ErrNotConnected
	}
	return readWithDeadline(ctx, d.conn, p)
}

type deadlineReader interface {
	Read(p []byte) (int, error)
	SetReadDeadline(t time.Time) error
}

// readWithDeadline maps ctx onto the read deadline of r. An expired deadline
// is reported as the context error.
func readWithDeadline(ctx context.Context, r deadlineReader, p []byte) (int, error) {
	dl, hasDeadline := ctx.Deadline()
	_ = r.SetReadDeadline(dl)
	stop := context.AfterFunc(ctx, func() {
		_ = r.SetReadDeadline(time.Now())
	})
	defer stop()

	n, err := r.Read(p)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		if cerr := ctx.Err(); cerr != nil {
			return n, cerr
		}
		if hasDeadline {
			return n, context.DeadlineExceeded
		}
	}
	return n, err
}
