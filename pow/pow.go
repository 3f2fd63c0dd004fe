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

// Package pow is the CPU reference for the device: a parallel search of the
// nonce space of a block header.
package pow

import (
	"context"
	"crypto/sha256"
	"encoding"
	"encoding/binary"
	"errors"
	"sync"

	"btcminer/sha256d"
	"btcminer/work"
)

const WORKERS = 32

// nonces each worker checks per round
const chunk = 1 << 12

var ErrExhausted = errors.New("nonce space exhausted")

// Search returns the smallest nonce in [from, 0xFFFFFFFF) for which pred
// holds on the double SHA-256 of header. The nonce in header is ignored.
//
// It returns [ErrExhausted] if no nonce qualifies and the context error if ctx
// is done first.
func Search(ctx context.Context, header [work.HeaderSize]byte, from uint32, pred func(d sha256d.Digest) bool) (uint32, error) {
	// the first block does not depend on the nonce
	h := sha256.New()
	h.Write(header[:sha256d.BlockSize])
	state, err := h.(encoding.BinaryMarshaler).MarshalBinary()
	if err != nil {
		return 0, err
	}

	var tail [sha256d.TailSize]byte
	copy(tail[:], header[sha256d.BlockSize:])

	for base := uint64(from); base < work.MaxNonce; base += WORKERS * chunk {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, ok := round(ctx, state, tail, base, pred)
		// workers below a hit may have stopped early, n is not the smallest
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if ok {
			return n, nil
		}
	}
	return 0, ErrExhausted
}

// round lets every worker scan one chunk starting at base and returns the
// smallest hit.
func round(ctx context.Context, state []byte, tail [sha256d.TailSize]byte, base uint64, pred func(sha256d.Digest) bool) (uint32, bool) {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		best uint64 = work.MaxNonce
	)

	for i := uint64(0); i < WORKERS; i++ {
		start := base + i*chunk
		if start >= work.MaxNonce {
			break
		}
		end := min(start+chunk, work.MaxNonce)

		wg.Add(1)
		go func(start, end uint64, tail [sha256d.TailSize]byte) {
			defer wg.Done()
			h := sha256.New()
			hu := h.(encoding.BinaryUnmarshaler)
			var first [sha256.Size]byte

			for n := start; n < end; n++ {
				if n%1024 == 0 && ctx.Err() != nil {
					return
				}
				_ = hu.UnmarshalBinary(state)
				binary.LittleEndian.PutUint32(tail[12:], uint32(n))
				h.Write(tail[:])
				if pred(sha256.Sum256(h.Sum(first[:0]))) {
					mu.Lock()
					best = min(best, n)
					mu.Unlock()
					return
				}
			}
		}(start, end, tail)
	}
	wg.Wait()

	return uint32(best), best != work.MaxNonce
}
