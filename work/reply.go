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

package work

import (
	"encoding/binary"
	"math/big"
	"slices"

	"btcminer/sha256d"
)

// Reply carries a nonce satisfying the device difficulty back to the host.
// The nonce value is sent big endian.
type Reply struct {
	Nonce uint32
}

// Unmarshals the reply from the provided buffer.
func (r *Reply) Unmarshal(buf []byte) (int, error) {
	if len(buf) < r.CalcSize() {
		return 0, ErrNotEnoughData
	}
	r.Nonce = binary.BigEndian.Uint32(buf)
	return ReplySize, nil
}

// Marshals the reply to the provided buffer.
func (r *Reply) Marshal(buf []byte) ([]byte, error) {
	buf = slices.Grow(buf, r.CalcSize())
	buf = buf[:r.CalcSize()]
	binary.BigEndian.PutUint32(buf, r.Nonce)
	return buf, nil
}

// Put writes the reply into buf, which must already be large enough.
func (r *Reply) Put(buf []byte) error {
	if len(buf) < r.CalcSize() {
		return ErrBufSize
	}
	binary.BigEndian.PutUint32(buf, r.Nonce)
	return nil
}

func (r *Reply) CalcSize() int {
	return ReplySize
}

// TargetFromBits expands the compact target representation of a header.
//
// See https://developer.bitcoin.org/reference/block_chain.html#target-nbits
func TargetFromBits(bits uint32) *big.Int {
	exp := uint(bits >> 24)
	mant := big.NewInt(int64(bits & 0x007fffff))
	if exp <= 3 {
		return mant.Rsh(mant, 8*(3-exp))
	}
	return mant.Lsh(mant, 8*(exp-3))
}

// HashValue interprets a digest as the little endian number it is compared
// against the target as.
func HashValue(d sha256d.Digest) *big.Int {
	r := d.Reverse()
	return new(big.Int).SetBytes(r[:])
}

// MeetsTarget reports whether d is a valid proof of work for target.
func MeetsTarget(d sha256d.Digest, target *big.Int) bool {
	return HashValue(d).Cmp(target) <= 0
}
