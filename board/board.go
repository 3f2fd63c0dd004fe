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

// Package board emulates the peripherals of the mining board: status LEDs,
// the SysTick cycle counter, interrupt masking and the link to the host.
package board

import (
	"encoding/binary"
	"fmt"
	"os"

	"btcminer/firmware"
	"btcminer/sha256d"
)

const (
	Name      = "STM32F4DISCOVERY"
	Framework = "libopencm3"
	// core clock of the STM32F4
	ClockHz = 168_000_000
)

// USB identity of the CDC ACM device.
var USB = firmware.USBDescriptor{
	VendorID:     0x0483,
	VendorName:   "STMicroelectronics",
	ProductID:    0x5740,
	ProductName:  "Virtual COM Port",
	Manufacturer: Name,
	Product:      "Bitcoin USB Miner",
}

// SerialNumber formats the 96 bit unique id of the chip as
// UID(95:64)-UID(63:32)-UID(31:0).
func SerialNumber(uid [3]uint32) string {
	return fmt.Sprintf("%08x-%08x-%08x", uid[2], uid[1], uid[0])
}

// EmulatedUID derives a stable unique id from the host name.
func EmulatedUID() [3]uint32 {
	name, err := os.Hostname()
	if err != nil {
		name = Name
	}
	d := sha256d.Sum256([]byte(name))
	return [3]uint32{
		binary.LittleEndian.Uint32(d[0:]),
		binary.LittleEndian.Uint32(d[4:]),
		binary.LittleEndian.Uint32(d[8:]),
	}
}

// Info describes the emulated board. usb selects whether the USB descriptor
// is part of it.
func Info(uid [3]uint32, usb bool) firmware.BoardInfo {
	info := firmware.BoardInfo{
		Name:      Name,
		Framework: Framework,
		Serial:    SerialNumber(uid),
	}
	if usb {
		d := USB
		info.USB = &d
	}
	return info
}
