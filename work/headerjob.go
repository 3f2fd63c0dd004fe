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
	"slices"

	"btcminer/sha256d"
)

// HeaderJob is the 80 byte job of the full header protocol. It is the block
// header as is, the nonce little endian in the last four bytes.
type HeaderJob [HeaderSize]byte

func NewHeaderJob(h *BlockHeader) HeaderJob {
	return HeaderJob(h.Bytes())
}

// Unmarshals the job from the provided buffer.
func (j *HeaderJob) Unmarshal(buf []byte) (int, error) {
	if len(buf) < j.CalcSize() {
		return 0, ErrNotEnoughData
	}
	return copy(j[:], buf), nil
}

// Marshals the job to the provided buffer.
func (j *HeaderJob) Marshal(buf []byte) ([]byte, error) {
	buf = slices.Grow(buf, j.CalcSize())
	buf = buf[:j.CalcSize()]
	copy(buf, j[:])
	return buf, nil
}

func (j *HeaderJob) CalcSize() int {
	return HeaderSize
}

func (j *HeaderJob) Nonce() uint32 {
	return binary.LittleEndian.Uint32(j[NonceOffset:])
}

func (j *HeaderJob) SetNonce(n uint32) {
	binary.LittleEndian.PutUint32(j[NonceOffset:], n)
}

func (j *HeaderJob) Hash() sha256d.Digest {
	return sha256d.Sum(j[:])
}
