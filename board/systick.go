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
	"math/bits"
	"sync"
	"time"
)

// reload value of the 24 bit SysTick counter
const Reload = 0x00FFFFFF

// SysTick counts core clock cycles derived from wall clock time. The counter
// wraps every period cycles, the number of wraps is kept across resets.
type SysTick struct {
	hz     uint64
	period uint32
	now    func() time.Time

	mu sync.Mutex
	// time of the last reset
	origin time.Time
	// wraps that happened before the last reset
	wraps uint32
}

// NewSysTick creates a counter running at hz, wrapping after period cycles.
// now is the time source, nil means [time.Now].
func NewSysTick(hz uint32, period uint32, now func() time.Time) *SysTick {
	if now == nil {
		now = time.Now
	}
	return &SysTick{
		hz:     uint64(hz),
		period: period,
		now:    now,
		origin: now(),
	}
}

// cycles that pass in d
func (s *SysTick) ticks(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(d), s.hz)
	q, _ := bits.Div64(hi, lo, uint64(time.Second))
	return q
}

// only call with mu held
func (s *SysTick) elapsed() uint64 {
	return s.ticks(s.now().Sub(s.origin))
}

// Reset restarts the current period.
func (s *SysTick) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wraps += uint32(s.elapsed() / uint64(s.period))
	s.origin = s.now()
}

func (s *SysTick) Cycles() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint32(s.elapsed() % uint64(s.period))
}

func (s *SysTick) Overflows() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wraps + uint32(s.elapsed()/uint64(s.period))
}

func (s *SysTick) Period() uint32 {
	return s.period
}
