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
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"btcminer/common"
	"btcminer/work"
)

// known answer used to detect mining devices: block 222222, starting a few
// nonces before the one that solved it
var (
	probeHeader = work.BlockHeader{
		Version: 2,
		PrevHash: [32]byte{
			0x42, 0x6f, 0x46, 0xed, 0x1c, 0x52, 0xcf, 0x2f, 0xff, 0x79, 0xf2, 0x81, 0x26, 0x28, 0x70, 0x1d,
			0x2a, 0x1a, 0x78, 0x17, 0xf4, 0xaa, 0x89, 0xa5, 0x04, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		},
		MerkleRoot: [32]byte{
			0xea, 0xed, 0xc8, 0x60, 0x55, 0xf8, 0x96, 0x18, 0x36, 0xc6, 0xb7, 0x2d, 0xcc, 0xe2, 0x8c, 0xa5,
			0x55, 0x87, 0x99, 0x8c, 0x9f, 0x16, 0xbb, 0x05, 0xc8, 0xa8, 0x03, 0xb3, 0x63, 0x16, 0xb9, 0x14,
		},
		Timestamp: 0x512521e2,
		Bits:      0x1a04985c,
		Nonce:     probeNonce - 16,
	}
	probeNonce uint32 = 0x646268b8
)

// Probe checks whether dev is a mining device by letting it mine a known
// block. The device must be connected.
func Probe(ctx context.Context, log *slog.Logger, dev Device, timeout time.Duration) bool {
	s, err := NewMiner(log, dev, timeout).Mine(ctx, probeHeader)
	if err != nil {
		log.Debug("Probe failed", "device", dev.Name(), "err", err)
		return false
	}
	return s.Nonce == probeNonce && s.Block
}

// candidate tty names of CDC ACM and USB serial devices
var serialGlobs = []string{"/dev/ttyACM*", "/dev/ttyUSB*", "/dev/cu.usbmodem*"}

// Autodetect probes every serial port not in known for a mining device, at
// each of bauds until one answers. The returned devices are closed.
func Autodetect(ctx context.Context, log *slog.Logger, known []string, bauds []int, timeout time.Duration) []Device {
	var ports []string
	for _, g := range serialGlobs {
		m, _ := filepath.Glob(g)
		ports = append(ports, m...)
	}
	slices.Sort(ports)

	var found []Device
	for _, port := range ports {
		if slices.Contains(known, port) {
			log.Info("Port already added as mining device", "port", port)
			continue
		}
		if _, err := os.Stat(port); err != nil {
			continue
		}
		log.Info("Testing device", "port", port)
		d := probeBauds(ctx, log, port, bauds, timeout)
		if d == nil {
			log.Info("Not a mining device", "port", port)
			continue
		}
		log.Info("Found mining device", "port", port, "baud", d.Baud(), "variant", d.Variant())
		found = append(found, d)
	}
	return found
}

func probeBauds(ctx context.Context, log *slog.Logger, port string, bauds []int, timeout time.Duration) *SerialDevice {
	for _, baud := range bauds {
		if ctx.Err() != nil {
			return nil
		}
		log.Debug("Trying baud rate", "port", port, "baud", baud)
		if d := probePort(ctx, log, port, baud, timeout); d != nil {
			return d
		}
	}
	return nil
}

// only the variant of this build is probed. A job of the other size would
// leave a partial job in the device and shift every later one.
func probePort(ctx context.Context, log *slog.Logger, port string, baud int, timeout time.Duration) *SerialDevice {
	d := NewSerialDevice(port, port, baud, common.BuildVariant)
	if err := d.Connect(ctx); err != nil {
		log.Debug("Cannot open port", "port", port, "err", errors.Unwrap(err))
		return nil
	}
	defer d.Close()
	if !Probe(ctx, log, d, timeout) {
		return nil
	}
	return d
}
