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

// Package packetcounter sums up values in buckets of fixed duration, e.g.
// shares or hashes per minute.
package packetcounter

import (
	"time"

	"golang.org/x/exp/constraints"
)

type Counter[T constraints.Unsigned] struct {
	t   time.Time
	cnt T
	// gets called every time a bucket is finished
	do func(t time.Time, cnt T)
	// duration of the "buckets" to form
	granularity time.Duration
	now         func() time.Time
}

// NewCounter creates a counter calling do for every finished bucket.
func NewCounter[T constraints.Unsigned](do func(time.Time, T), granularity time.Duration) *Counter[T] {
	return &Counter[T]{
		do:          do,
		granularity: granularity,
		now:         time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (counter *Counter[T]) WithClock(now func() time.Time) *Counter[T] {
	counter.now = now
	return counter
}

func (counter *Counter[T]) Add(i T) {
	now := counter.now().Truncate(counter.granularity)
	if now.Equal(counter.t) {
		counter.cnt += i
		return
	}

	if !counter.t.IsZero() {
		counter.do(counter.t, counter.cnt)
	}

	counter.cnt = i
	counter.t = now
}

// Finalize reports the bucket in progress.
func (counter *Counter[T]) Finalize() {
	if !counter.t.IsZero() {
		counter.do(counter.t, counter.cnt)
		counter.t = time.Time{}
	}
}
