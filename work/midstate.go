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

// MidstateJob is the 48 byte job of the midstate protocol:
//
//	midstate (32) | merkle root tail (4) | timestamp (4) | bits (4) | nonce (4)
//
// On the wire every 32 bit word is little endian, matching the native layout
// of the device: the eight midstate words as they are, the four tail words as
// SHA-256 message words (i.e. the header bytes of each word reversed).
type MidstateJob struct {
	Midstate sha256d.State
	// header bytes 64..79 in header order
	Tail [sha256d.TailSize]byte
}

// NewMidstateJob prepares the job for h on the host.
func NewMidstateJob(h *BlockHeader) MidstateJob {
	b := h.Bytes()
	j := MidstateJob{Midstate: sha256d.Midstate(b[:])}
	copy(j.Tail[:], b[sha256d.BlockSize:])
	return j
}

// Unmarshals the job from the provided buffer.
//
// Returns the number of bytes read from the buffer.
func (j *MidstateJob) Unmarshal(buf []byte) (int, error) {
	if len(buf) < j.CalcSize() {
		return 0, ErrNotEnoughData
	}

	idx := 0
	for i := range j.Midstate {
		j.Midstate[i] = binary.LittleEndian.Uint32(buf[idx:])
		idx += 4
	}
	for i := 0; i < sha256d.TailSize; i += 4 {
		binary.BigEndian.PutUint32(j.Tail[i:], binary.LittleEndian.Uint32(buf[idx:]))
		idx += 4
	}

	return idx, nil
}

// Marshals the job to the provided buffer.
func (j *MidstateJob) Marshal(buf []byte) ([]byte, error) {
	buf = slices.Grow(buf, j.CalcSize())
	buf = buf[:j.CalcSize()]

	idx := 0
	for _, w := range j.Midstate {
		binary.LittleEndian.PutUint32(buf[idx:], w)
		idx += 4
	}
	for i := 0; i < sha256d.TailSize; i += 4 {
		binary.LittleEndian.PutUint32(buf[idx:], binary.BigEndian.Uint32(j.Tail[i:]))
		idx += 4
	}

	return buf, nil
}

// Returns the size of the job.
func (j *MidstateJob) CalcSize() int {
	return MidstateJobSize
}

// Nonce the device starts scanning at.
func (j *MidstateJob) Nonce() uint32 {
	return binary.LittleEndian.Uint32(j.Tail[12:])
}

func (j *MidstateJob) SetNonce(n uint32) {
	binary.LittleEndian.PutUint32(j.Tail[12:], n)
}

// Ctx returns the hashing context of this job.
func (j *MidstateJob) Ctx() sha256d.MidstateCtx {
	return sha256d.NewMidstateCtx(j.Midstate, j.Tail)
}
