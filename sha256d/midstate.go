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

package sha256d

import (
	"encoding/binary"
	"math/bits"
)

const (
	// size of the header tail that ends up in the second block
	TailSize = 16
	// bit length of the 80 byte block header, encoded in the second block
	headerBits = 80 * 8
	// message word of the second block holding the nonce
	nonceWord = 3
)

// MidstateCtx resumes the first hash of an 80 byte header from its midstate.
//
// Block holds the message words of the second 64 byte block: the 16 byte tail
// of the header, the padding and the bit length. Only the nonce word is
// changed between two hashes.
type MidstateCtx struct {
	Midstate State
	Block    [16]uint32
}

// NewMidstateCtx builds the context for the header whose first 64 bytes
// compress to midstate and whose last 16 bytes are tail (in header byte
// order: merkle root tail, timestamp, bits, nonce).
func NewMidstateCtx(midstate State, tail [TailSize]byte) MidstateCtx {
	c := MidstateCtx{Midstate: midstate}
	for i := 0; i < TailSize/4; i++ {
		c.Block[i] = binary.BigEndian.Uint32(tail[4*i:])
	}
	c.Block[TailSize/4] = 0x80000000
	c.Block[15] = headerBits
	return c
}

// Hash returns SHA256(SHA256(header)) for the header described by c.
func (c *MidstateCtx) Hash() Digest {
	h := c.Midstate
	compress(&h, &c.Block)
	h = second(&h)
	return h.Bytes()
}

// Nonce returns the nonce currently placed in the block.
//
// The header stores the nonce little endian while SHA-256 reads big endian
// words, so the message word is the byte swapped nonce.
func (c *MidstateCtx) Nonce() uint32 {
	return bits.ReverseBytes32(c.Block[nonceWord])
}

// SetNonce places n into the block, see [MidstateCtx.Nonce].
func (c *MidstateCtx) SetNonce(n uint32) {
	c.Block[nonceWord] = bits.ReverseBytes32(n)
}
