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

// BlockHeader is the 80 byte Bitcoin block header.
//
// PrevHash and MerkleRoot are kept in serialization order (the reverse of
// the usual hex display order). All integers are little endian on the wire.
type BlockHeader struct {
	Version    uint32
	PrevHash   [32]byte
	MerkleRoot [32]byte
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
}

// Unmarshals the header from the provided buffer.
//
// Returns the number of bytes read from the buffer.
func (h *BlockHeader) Unmarshal(buf []byte) (int, error) {
	if len(buf) < h.CalcSize() {
		return 0, ErrNotEnoughData
	}

	idx := 0

	h.Version = binary.LittleEndian.Uint32(buf[idx:])
	idx += 4

	idx += copy(h.PrevHash[:], buf[idx:])
	idx += copy(h.MerkleRoot[:], buf[idx:])

	h.Timestamp = binary.LittleEndian.Uint32(buf[idx:])
	idx += 4

	h.Bits = binary.LittleEndian.Uint32(buf[idx:])
	idx += 4

	h.Nonce = binary.LittleEndian.Uint32(buf[idx:])
	idx += 4

	return idx, nil
}

// Marshals the header to the provided buffer.
func (h *BlockHeader) Marshal(buf []byte) ([]byte, error) {
	buf = slices.Grow(buf, h.CalcSize())
	buf = buf[:h.CalcSize()]
	h.put(buf)
	return buf, nil
}

func (h *BlockHeader) put(buf []byte) {
	idx := 0
	binary.LittleEndian.PutUint32(buf[idx:], h.Version)
	idx += 4
	idx += copy(buf[idx:], h.PrevHash[:])
	idx += copy(buf[idx:], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(buf[idx:], h.Timestamp)
	idx += 4
	binary.LittleEndian.PutUint32(buf[idx:], h.Bits)
	idx += 4
	binary.LittleEndian.PutUint32(buf[idx:], h.Nonce)
}

// Returns the size of the header.
func (h *BlockHeader) CalcSize() int {
	return HeaderSize
}

// Bytes returns the serialized header without allocating.
func (h *BlockHeader) Bytes() [HeaderSize]byte {
	var b [HeaderSize]byte
	h.put(b[:])
	return b
}

// Hash returns the double SHA-256 of the serialized header.
func (h *BlockHeader) Hash() sha256d.Digest {
	b := h.Bytes()
	return sha256d.Sum(b[:])
}
