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

// Package work implements the binary formats exchanged between the host and
// the mining device.
//
// All types have `CalcSize`, `Marshal` and `Unmarshal`. Marshal appends to
// (and grows) the provided buffer, Unmarshal expects the complete packet and
// returns the number of bytes read. The device side only uses Unmarshal on
// statically sized buffers, so Unmarshal never allocates.
package work

import "errors"

// Definition of possible errors that might occur in this package.
var (
	ErrNotEnoughData = errors.New("not enough data")
	ErrBufSize       = errors.New("provided buffer is too small")
)

const (
	// size of a full block header (variant B job)
	HeaderSize = 80
	// size of a midstate job (variant A job)
	MidstateJobSize = 48
	// size of the reply carrying a nonce
	ReplySize = 4
	// offset of the nonce inside a block header
	NonceOffset = 76
	// the last nonce value, it terminates a job without being hashed
	MaxNonce = 0xFFFFFFFF
)

type Packet interface {
	CalcSize() int
	Marshal(buf []byte) ([]byte, error)
	Unmarshal(buf []byte) (int, error)
}
