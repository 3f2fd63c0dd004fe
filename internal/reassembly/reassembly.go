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

// Package reassembly collects a fixed size packet from arbitrarily sized
// chunks of a byte stream.
package reassembly

// Buffer has a fixed capacity chosen at creation. Bytes exceeding the
// capacity are dropped, the buffer never grows.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	data []byte
	len  int
}

// Use this function to instantiate the buffer
func New(capacity int) *Buffer {
	return &Buffer{
		data: make([]byte, capacity),
		len:  0,
	}
}

// Append copies as much of chunk as still fits and returns the number of
// bytes taken. The rest of chunk is discarded.
func (b *Buffer) Append(chunk []byte) int {
	n := copy(b.data[b.len:], chunk)
	b.len += n
	return n
}

func (b *Buffer) Len() int {
	return b.len
}

func (b *Buffer) Cap() int {
	return len(b.data)
}

// Complete reports whether the buffer is filled up to its capacity.
func (b *Buffer) Complete() bool {
	return b.len == len(b.data)
}

// Bytes returns the collected bytes. The slice aliases the buffer and is
// only valid until the next Reset.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.len]
}

func (b *Buffer) Reset() {
	b.len = 0
}
