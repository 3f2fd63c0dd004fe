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

// LED ids understood by an [Indicator].
const (
	// lit while a job is scanned
	LEDProcessing = iota
	// blinks when a share was found
	LEDSuccess
)

// Transport sends bytes to the host.
//
// Send returns the number of bytes accepted, 0 if the transport is busy. An
// error means the transport will never accept bytes again.
type Transport interface {
	Send(p []byte) (int, error)
}

// Indicator drives the status LEDs of the board.
type Indicator interface {
	Set(led int)
	Clear(led int)
	Read(led int) bool
	// Blink toggles led n times without blocking the caller.
	Blink(led int, n int)
}

// CycleCounter is a free running counter clocked with the core clock. It
// wraps every Period cycles.
type CycleCounter interface {
	// Reset sets the current cycle count to zero.
	Reset()
	// cycles since the last reset or wrap
	Cycles() uint32
	// total number of wraps, never reset
	Overflows() uint32
	Period() uint32
}
