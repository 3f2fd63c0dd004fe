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

// Package args is used for specifying the arguments (internally) used by the
// device emulator and the host miner.
package args

import (
	"slices"
	"time"

	"btcminer/common"
)

const (
	LinkCDC  = "cdc"
	LinkUART = "uart"
	// baud rate of a serial port unless configured otherwise
	DefaultBaud = 115200
)

// baud rates tried in this order when probing serial ports
var ProbeBauds = []int{115200, 57600, 38400, 19200, 9600}

// Represents the arguments used actually/internally by the device.
//
// You can use [NewFromDefaults] to obtain this struct with default values set
type Args struct {
	// protocol variant, fixed at build time on real hardware
	Variant common.Variant
	// what to do after a share was sent
	Policy common.SuccessPolicy
	// kind of link to the host, "cdc" (64 byte packets) or "uart" (single
	// bytes)
	Link string
	// serial port or pty the device is attached to, empty for stdin/stdout
	Port string
	// baud rate of Port
	Baud int
	// core clock the cycle counter runs at
	ClockHz uint32
	// number of times the success LED flashes per share
	Blinks int
	// toggle period of a blinking LED
	BlinkPeriod time.Duration
	// log the welcome banner with the measured hashrate on startup
	Banner bool
}

// Returns a new [Args] struct with sane default values
func NewFromDefaults() Args {
	return Args{
		Variant:     common.BuildVariant,
		Policy:      common.ReturnToIdle,
		Link:        LinkCDC,
		Port:        "",
		Baud:        DefaultBaud,
		ClockHz:     168_000_000,
		Blinks:      6,
		BlinkPeriod: 50 * time.Millisecond,
		Banner:      true,
	}
}

// Represents the arguments of the host miner.
type MinerArgs struct {
	// devices to mine on, see host.ParseDevice for the format
	Devices []string
	// probe all serial ports for mining devices
	Autodetect bool
	// baud rates tried on every autodetected port
	Bauds []int
	// block headers (hex) to mine
	Headers []string
	// time a device has to find a share
	Timeout time.Duration
	// file the share statistics are written to as CSV, empty to disable
	Stats string
	// size of the buckets shares are counted in
	Bucket time.Duration
}

// Returns a new [MinerArgs] struct with sane default values
func NewMinerFromDefaults() MinerArgs {
	return MinerArgs{
		Devices:    nil,
		Autodetect: false,
		Bauds:      slices.Clone(ProbeBauds),
		Headers:    nil,
		Timeout:    60 * time.Second,
		Stats:      "",
		Bucket:     time.Minute,
	}
}
