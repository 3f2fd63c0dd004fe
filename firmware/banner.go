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

package firmware

import (
	"fmt"
	"log/slog"
)

// Target printed in the welcome banner, the device only accepts hashes
// whose two most significant bytes are zero.
const TargetString = "0000FFFF....FFFFF"

// USBDescriptor is the part of the USB device descriptor shown in the banner.
type USBDescriptor struct {
	VendorID     uint16
	VendorName   string
	ProductID    uint16
	ProductName  string
	Manufacturer string
	Product      string
}

// BoardInfo describes the board the core is running on.
type BoardInfo struct {
	Name      string
	Framework string
	Serial    string
	// nil if the board talks over a UART
	USB *USBDescriptor
}

// Welcome logs the startup banner of the device.
func (e *Engine) Welcome(info BoardInfo, hashrate uint32) {
	attrs := []any{
		slog.Group("board",
			"name", info.Name,
			"framework", info.Framework,
			"uid", info.Serial,
		),
	}
	if d := info.USB; d != nil {
		attrs = append(attrs, slog.Group("usb",
			"idVendor", fmt.Sprintf("0x%04x (%s)", d.VendorID, d.VendorName),
			"idProduct", fmt.Sprintf("0x%04x (%s)", d.ProductID, d.ProductName),
			"iManufacturer", d.Manufacturer,
			"iProduct", d.Product,
			"iSerial", info.Serial,
		))
	}
	attrs = append(attrs, slog.Group("mining",
		"variant", e.cfg.Variant,
		"hashrate", fmt.Sprintf("%d Hashes/s", hashrate),
		"target", TargetString,
	))
	e.mlog.Info("MCU Bitcoin Miner", attrs...)
}
