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

package testutils

import (
	"encoding/hex"

	"btcminer/work"
)

// Block is a mined main net block used as known answer.
type Block struct {
	Name string
	// serialized header
	Header string
	// the header as 48 byte midstate job
	Job string
	// hash in display order
	Hash  string
	Nonce uint32
	// the first nonce after Nonce whose hash has two leading zero bytes
	NextHit uint32
}

var (
	Block222222 = Block{
		Name: "222222",
		Header: "02000000426f46ed1c52cf2fff79f2812628701d2a1a7817f4aa89a50402000000000000" +
			"eaedc86055f8961836c6b72dcce28ca55587998c9f16bb05c8a803b36316b914e22125515c98041ab8686264",
		Job: "167ff5ad63ab786ce8fcb09136fff458ea016749b643beff9b0f750b51975651" +
			"14b91663512521e21a04985c646268b8",
		Hash:    "00000000000000b8b49d0b61b14994b5c0a511c4b48a1e251ff2b479b2e6f678",
		Nonce:   0x646268b8,
		NextHit: 0x6463f5ef,
	}
	Block555444 = Block{
		Name: "555444",
		Header: "000000203c9568c0d8bf0e3eec9d8893e5bfc712b5578db13b630a000000000000000000" +
			"43a3cbafc3a3213a225783362b1cc02d077d9f3b1c8259ef03346125b5d0cd66b569225cf41e3717ce88e5f9",
		Job: "48ba5d2cb31d73fa8194633412f1d424d2abb6ef7ef99e1f287758f582a839ef" +
			"66cdd0b55c2269b517371ef4f9e588ce",
		Hash:    "00000000000000000016fcd451c5e3127fa99fb64f0b750d9a86df547f7b4642",
		Nonce:   0xf9e588ce,
		NextHit: 0xf9e619d4,
	}

	Blocks = []Block{Block222222, Block555444}
)

// BlockHeader returns the decoded header of b.
func (b Block) BlockHeader() work.BlockHeader {
	raw, err := hex.DecodeString(b.Header)
	if err != nil {
		panic(err)
	}
	var h work.BlockHeader
	if _, err := h.Unmarshal(raw); err != nil {
		panic(err)
	}
	return h
}

// WithNonce returns the header of b with the nonce replaced.
func (b Block) WithNonce(n uint32) work.BlockHeader {
	h := b.BlockHeader()
	h.Nonce = n
	return h
}

// RawJob returns the job of variant midstate (48 bytes) or header (80 bytes)
// for b starting at nonce n.
func (b Block) RawJob(header bool, n uint32) []byte {
	h := b.WithNonce(n)
	var buf []byte
	if header {
		j := work.NewHeaderJob(&h)
		buf, _ = j.Marshal(nil)
	} else {
		j := work.NewMidstateJob(&h)
		buf, _ = j.Marshal(nil)
	}
	return buf
}
