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
	"sync"
	"sync/atomic"
)

// IRQ models masking interrupts. While it is locked, the receive path of the
// board can not deliver bytes to the firmware.
type IRQ struct {
	mu     sync.Mutex
	masked atomic.Bool
}

func (i *IRQ) Lock() {
	i.mu.Lock()
	i.masked.Store(true)
}

func (i *IRQ) Unlock() {
	i.masked.Store(false)
	i.mu.Unlock()
}

// Masked reports whether interrupts are currently masked.
func (i *IRQ) Masked() bool {
	return i.masked.Load()
}
