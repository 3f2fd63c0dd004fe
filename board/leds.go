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
	"log/slog"
	"sync"
	"time"
)

// LEDs is a bank of up to 32 LEDs, one bit per LED.
type LEDs struct {
	log    *slog.Logger
	period time.Duration

	mu    sync.Mutex
	state uint32
	// completed blink sequences per LED
	blinks map[int]int

	wg sync.WaitGroup
}

// NewLEDs creates the LED bank, Blink toggles with the given period.
func NewLEDs(log *slog.Logger, period time.Duration) *LEDs {
	return &LEDs{
		log:    log.With("module", "leds"),
		period: period,
		blinks: make(map[int]int),
	}
}

func (l *LEDs) Set(led int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state |= 1 << led
}

func (l *LEDs) Clear(led int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state &^= 1 << led
}

func (l *LEDs) Toggle(led int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state ^= 1 << led
}

func (l *LEDs) Read(led int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state&(1<<led) != 0
}

// Blink flashes led n times in the background. The LED ends in the state it
// had before.
func (l *LEDs) Blink(led int, n int) {
	if n <= 0 {
		return
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for i := 0; i < 2*n; i++ {
			l.Toggle(led)
			time.Sleep(l.period)
		}
		l.mu.Lock()
		l.blinks[led]++
		l.mu.Unlock()
		l.log.Debug("Blinked", "led", led, "times", n)
	}()
}

// Blinks returns the number of finished Blink calls for led.
func (l *LEDs) Blinks(led int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.blinks[led]
}

// Wait blocks until all blink sequences are done.
func (l *LEDs) Wait() {
	l.wg.Wait()
}
