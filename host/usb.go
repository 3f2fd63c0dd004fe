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
	"fmt"
	"log/slog"

	"btcminer/board"
	"btcminer/common"

	"github.com/google/gousb"
)

const (
	// the CDC data interface, interface 0 is the control interface
	usbDataInterface = 1
	usbEndpointOut   = 0x01
	usbEndpointIn    = 0x82
)

// USBDevice talks to the board directly over the bulk endpoints of its CDC
// data interface, bypassing the kernel tty driver.
type USBDevice struct {
	log     *slog.Logger
	variant common.Variant

	ctx    *gousb.Context
	device *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface
	epOut  *gousb.OutEndpoint
	epIn   *gousb.InEndpoint
}

func NewUSBDevice(log *slog.Logger, v common.Variant) *USBDevice {
	return &USBDevice{
		log:     log.With("module", "usb"),
		variant: v,
	}
}

func (d *USBDevice) Name() string {
	if d.device != nil {
		if s, err := d.device.Product(); err == nil {
			return s
		}
	}
	return board.USB.Product
}

func (d *USBDevice) Variant() common.Variant {
	return d.variant
}

func (d *USBDevice) Connect(ctx context.Context) error {
	if d.device != nil {
		return nil
	}

	d.ctx = gousb.NewContext()
	device, err := d.ctx.OpenDeviceWithVIDPID(gousb.ID(board.USB.VendorID), gousb.ID(board.USB.ProductID))
	if err != nil {
		d.Close()
		return fmt.Errorf("failed to open USB device: %w", err)
	}
	if device == nil {
		d.Close()
		return fmt.Errorf("USB device not found (VID:0x%04x PID:0x%04x)", board.USB.VendorID, board.USB.ProductID)
	}
	d.device = device

	// the cdc_acm driver holds the interface otherwise
	if err := d.device.SetAutoDetach(true); err != nil {
		d.log.Warn("Could not enable auto detach", "err", err)
	}

	if d.config, err = d.device.Config(1); err != nil {
		d.Close()
		return fmt.Errorf("failed to set USB config: %w", err)
	}
	if d.intf, err = d.config.Interface(usbDataInterface, 0); err != nil {
		d.Close()
		return fmt.Errorf("failed to claim USB interface: %w", err)
	}
	if d.epOut, err = d.intf.OutEndpoint(usbEndpointOut); err != nil {
		d.Close()
		return fmt.Errorf("failed to open OUT endpoint: %w", err)
	}
	if d.epIn, err = d.intf.InEndpoint(usbEndpointIn & 0x0f); err != nil {
		d.Close()
		return fmt.Errorf("failed to open IN endpoint: %w", err)
	}

	d.log.Info("Opened USB device", "device", d.device.String())
	return nil
}

func (d *USBDevice) Close() error {
	if d.intf != nil {
		d.intf.Close()
	}
	var err error
	if d.config != nil {
		err = d.config.Close()
	}
	if d.device != nil {
		if cerr := d.device.Close(); err == nil {
			err = cerr
		}
	}
	if d.ctx != nil {
		if cerr := d.ctx.Close(); err == nil {
			err = cerr
		}
	}
	d.ctx, d.device, d.config, d.intf, d.epOut, d.epIn = nil, nil, nil, nil, nil, nil
	return err
}

func (d *USBDevice) Write(p []byte) (int, error) {
	if d.epOut == nil {
		return 0, ErrNotConnected
	}
	n, err := d.epOut.Write(p)
	if err != nil {
		return n, fmt.Errorf("USB write failed: %w", err)
	}
	return n, nil
}

func (d *USBDevice) ReadContext(ctx context.Context, p []byte) (int, error) {
	if d.epIn == nil {
		return 0, ErrNotConnected
	}
	n, err := d.epIn.ReadContext(ctx, p)
	if err != nil {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		return n, fmt.Errorf("USB read failed: %w", err)
	}
	return n, nil
}
