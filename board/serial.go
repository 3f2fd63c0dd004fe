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

package board

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// OpenSerial opens a serial port raw (8N1, no echo, no line editing) at baud.
// Reads block for at most poll, 0 blocks until data arrives.
func OpenSerial(port string, baud int, poll time.Duration) (serial.Port, error) {
	p, err := serial.Open(port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s at %d baud: %w", port, baud, err)
	}
	if poll > 0 {
		if err := p.SetReadTimeout(poll); err != nil {
			p.Close()
			return nil, fmt.Errorf("set read timeout on %s: %w", port, err)
		}
	}
	return p, nil
}
