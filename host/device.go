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

// Package host is the mining software side: it talks to mining devices,
// hands out work and verifies the shares they report.
package host

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"btcminer/common"
	"btcminer/internal/args"
)

// Definition of possible errors that might occur in this package.
var (
	ErrNotConnected = errors.New("device is not connected")
	ErrTimeout      = errors.New("device did not report a share in time")
	ErrInvalidShare = errors.New("share does not meet the device target")
	ErrUnknownType  = errors.New("unknown device type")
)

// Device is a connection to a mining device.
type Device interface {
	Name() string
	// job format the device expects
	Variant() common.Variant
	// Connect opens the connection, it is a no-op if already connected.
	Connect(ctx context.Context) error
	Close() error
	Write(p []byte) (int, error)
	// ReadContext reads what the device sent, blocking until at least one
	// byte arrived or ctx is done.
	ReadContext(ctx context.Context, p []byte) (int, error)
}

// ParseDevice creates a device from its description:
//
//	serial:<port>[:<baud>][:midstate|header]
//	usb[:midstate|header]
//	emulator[:midstate|header]
//	simulator
func ParseDevice(desc string, opts Options) (Device, error) {
	kind, rest, _ := strings.Cut(desc, ":")

	variant := func(s string) (common.Variant, error) {
		if s == "" {
			return common.BuildVariant, nil
		}
		return common.ParseVariant(s)
	}

	switch kind {
	case "serial":
		fields := strings.Split(rest, ":")
		port := fields[0]
		if port == "" {
			return nil, fmt.Errorf("serial device %q: missing port", desc)
		}
		baud, vs := args.DefaultBaud, ""
		for _, f := range fields[1:] {
			if b, err := strconv.Atoi(f); err == nil {
				if b <= 0 {
					return nil, fmt.Errorf("serial device %q: invalid baud rate %d", desc, b)
				}
				baud = b
				continue
			}
			vs = f
		}
		v, err := variant(vs)
		if err != nil {
			return nil, fmt.Errorf("serial device %q: %w", desc, err)
		}
		return NewSerialDevice(port, port, baud, v), nil
	case "usb":
		v, err := variant(rest)
		if err != nil {
			return nil, fmt.Errorf("usb device %q: %w", desc, err)
		}
		return NewUSBDevice(opts.Log, v), nil
	case "emulator":
		v, err := variant(rest)
		if err != nil {
			return nil, fmt.Errorf("emulator %q: %w", desc, err)
		}
		return NewEmulatorDevice(opts.Log, opts.NextName("emulator"), v), nil
	case "simulator":
		return NewSimulatorDevice(opts.NextName("simulator")), nil
	}
	return nil, fmt.Errorf("%q: %w", desc, ErrUnknownType)
}
