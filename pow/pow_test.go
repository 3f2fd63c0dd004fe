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

package pow

import (
	"context"
	"testing"
	"time"

	"btcminer/internal/testutils"
	"btcminer/sha256d"
)

func TestSearchFindsBlockNonce(t *testing.T) {
	for _, b := range testutils.Blocks {
		h := b.BlockHeader()
		n, err := Search(context.Background(), h.Bytes(), b.Nonce-100, sha256d.Meets)
		if err != nil {
			t.Fatalf("%s: %v", b.Name, err)
		}
		if n != b.Nonce {
			t.Fatalf("%s: found %08x, should be %08x", b.Name, n, b.Nonce)
		}

		// the smallest hit wins even if a later chunk finishes first
		n, err = Search(context.Background(), h.Bytes(), b.Nonce+1, sha256d.Meets)
		if err != nil || n != b.NextHit {
			t.Fatalf("%s: next hit (%08x, %v), should be %08x", b.Name, n, err, b.NextHit)
		}
	}
}

func TestSearchExhausted(t *testing.T) {
	h := testutils.Block222222.BlockHeader()
	if _, err := Search(context.Background(), h.Bytes(), 0xFFFFFF00, sha256d.Meets); err != ErrExhausted {
		t.Fatalf("search of the last 255 nonces returned %v, should be %v", err, ErrExhausted)
	}
	// the last nonce is never checked
	always := func(sha256d.Digest) bool { return true }
	if _, err := Search(context.Background(), h.Bytes(), 0xFFFFFFFF, always); err != ErrExhausted {
		t.Fatalf("search starting at the last nonce returned %v", err)
	}
	if n, err := Search(context.Background(), h.Bytes(), 0xFFFFFFFE, always); err != nil || n != 0xFFFFFFFE {
		t.Fatalf("search returned (%08x, %v)", n, err)
	}
}

func TestSearchCancel(t *testing.T) {
	h := testutils.Block222222.BlockHeader()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	never := func(sha256d.Digest) bool { return false }
	if _, err := Search(ctx, h.Bytes(), 0, never); err != context.DeadlineExceeded {
		t.Fatalf("cancelled search returned %v", err)
	}
}

func TestSearchCancelledAfterHit(t *testing.T) {
	h := testutils.Block222222.BlockHeader()
	// a hit in a later chunk of the first round, the context ends with it
	h.Nonce = 5*chunk + 10
	hit := h.Hash()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pred := func(d sha256d.Digest) bool {
		if d == hit {
			cancel()
			return true
		}
		return false
	}
	if n, err := Search(ctx, h.Bytes(), 0, pred); err != context.Canceled {
		t.Fatalf("search returned (%08x, %v), lower chunks were not searched completely", n, err)
	}
}

func BenchmarkSearch(b *testing.B) {
	h := testutils.Block555444.BlockHeader()
	for i := 0; i < b.N; i++ {
		n, err := Search(context.Background(), h.Bytes(), testutils.Block555444.Nonce-1<<16, sha256d.Meets)
		if err != nil || n != testutils.Block555444.Nonce {
			b.Fatalf("search returned (%08x, %v)", n, err)
		}
	}
}
