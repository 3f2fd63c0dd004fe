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

// Package sha256d implements the double SHA-256 used for proof of work.
//
// Besides a one-shot [Sum] over arbitrary data the package exposes the
// midstate optimisation used by the scan loop: the chaining value after the
// first 64 bytes of a block header is computed once ([Midstate]) and every
// nonce only costs the compression of the second block plus the second hash
// ([MidstateCtx.Hash]).
//
// Nothing in here allocates, the padding blocks live on the stack.
package sha256d

import (
	"encoding/binary"
	"encoding/hex"
	"math/bits"
)

const (
	// size of a digest in bytes
	Size = 32
	// size of one compression block in bytes
	BlockSize = 64
)

// Digest is a SHA-256 digest in standard byte order.
type Digest [Size]byte

// State is the chaining value of SHA-256 (eight 32 bit words).
type State [8]uint32

// initial chaining value
var iv = State{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

var _K = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5, 0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3, 0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc, 0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7, 0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13, 0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3, 0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5, 0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208, 0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

// compress runs the SHA-256 compression function over one block given as 16
// message words. m is not modified.
func compress(h *State, m *[16]uint32) {
	var w [64]uint32
	copy(w[:16], m[:])
	for i := 16; i < 64; i++ {
		v1 := w[i-2]
		t1 := bits.RotateLeft32(v1, -17) ^ bits.RotateLeft32(v1, -19) ^ (v1 >> 10)
		v2 := w[i-15]
		t2 := bits.RotateLeft32(v2, -7) ^ bits.RotateLeft32(v2, -18) ^ (v2 >> 3)
		w[i] = t1 + w[i-7] + t2 + w[i-16]
	}

	a, b, c, d, e, f, g, hh := h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7]

	for i := 0; i < 64; i++ {
		t1 := hh + (bits.RotateLeft32(e, -6) ^ bits.RotateLeft32(e, -11) ^ bits.RotateLeft32(e, -25)) +
			((e & f) ^ (^e & g)) + _K[i] + w[i]
		t2 := (bits.RotateLeft32(a, -2) ^ bits.RotateLeft32(a, -13) ^ bits.RotateLeft32(a, -22)) +
			((a & b) ^ (a & c) ^ (b & c))

		hh = g
		g = f
		f = e
		e = d + t1
		d = c
		c = b
		b = a
		a = t1 + t2
	}

	h[0] += a
	h[1] += b
	h[2] += c
	h[3] += d
	h[4] += e
	h[5] += f
	h[6] += g
	h[7] += hh
}

// blocks compresses p (a multiple of BlockSize) into h.
func blocks(h *State, p []byte) {
	var m [16]uint32
	for len(p) >= BlockSize {
		for i := range m {
			m[i] = binary.BigEndian.Uint32(p[4*i:])
		}
		compress(h, &m)
		p = p[BlockSize:]
	}
}

// sum256 computes the chaining value after hashing data including the
// standard padding (0x80, zeros, 64 bit big endian bit length).
func sum256(data []byte) State {
	h := iv
	full := len(data) &^ (BlockSize - 1)
	blocks(&h, data[:full])

	var tail [2 * BlockSize]byte
	r := copy(tail[:], data[full:])
	tail[r] = 0x80
	t := BlockSize
	if r >= BlockSize-8 {
		// the length does not fit behind the 0x80 anymore
		t = 2 * BlockSize
	}
	binary.BigEndian.PutUint64(tail[t-8:t], uint64(len(data))<<3)
	blocks(&h, tail[:t])
	return h
}

// second hashes the 32 byte intermediate digest held in first, starting from
// the initial chaining value. The padding block is fixed: the digest, 0x80
// and a bit length of 256.
func second(first *State) State {
	var m [16]uint32
	copy(m[:8], first[:])
	m[8] = 0x80000000
	m[15] = Size * 8
	h := iv
	compress(&h, &m)
	return h
}

// Bytes encodes the chaining value in standard (big endian) digest order.
func (s *State) Bytes() Digest {
	var d Digest
	for i, v := range s {
		binary.BigEndian.PutUint32(d[4*i:], v)
	}
	return d
}

// Sum256 returns the plain SHA-256 of data.
func Sum256(data []byte) Digest {
	s := sum256(data)
	return s.Bytes()
}

// Sum returns SHA256(SHA256(data)).
func Sum(data []byte) Digest {
	first := sum256(data)
	h := second(&first)
	return h.Bytes()
}

// Midstate returns the chaining value after compressing the first 64 bytes of
// header (no padding involved). header must hold at least [BlockSize] bytes.
func Midstate(header []byte) State {
	_ = header[BlockSize-1]
	h := iv
	blocks(&h, header[:BlockSize])
	return h
}

// Window returns the part of the digest compared against the fixed
// difficulty: the low 16 bits of the last state word. These are the two most
// significant bytes of the hash read as a little endian number (the way
// Bitcoin displays hashes).
func Window(d Digest) uint16 {
	return uint16(d[30])<<8 | uint16(d[31])
}

// Meets reports whether d satisfies the fixed target 0000ffff...ff.
func Meets(d Digest) bool {
	return Window(d) == 0
}

// Reverse returns the digest in the byte order Bitcoin uses for display.
func (d Digest) Reverse() Digest {
	for i, j := 0, Size-1; i < j; i, j = i+1, j-1 {
		d[i], d[j] = d[j], d[i]
	}
	return d
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
