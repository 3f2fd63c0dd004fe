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

// Package firmware contains the mining core of the device: the job currently
// scanned, the assembly of new jobs from received bytes and the scan loop
// reporting nonces back to the host.
//
// The package does not touch hardware. Everything board specific is handed in
// through the interfaces in this package, see [New].
package firmware

import (
	"btcminer/common"
	"btcminer/sha256d"
	"btcminer/work"
)

// Job is the work item in the representation the device scans it in.
//
// Load must only be called with exactly Size bytes and must not allocate, it
// runs when the last byte of a job arrived.
type Job interface {
	Size() int
	Load(raw []byte)
	Nonce() uint32
	SetNonce(n uint32)
	Hash() sha256d.Digest
}

// NewJob returns an empty job of variant v.
func NewJob(v common.Variant) Job {
	if v == common.VariantHeader {
		return &HeaderJob{}
	}
	return &MidstateJob{}
}

// MidstateJob hashes by resuming from the midstate sent by the host.
type MidstateJob struct {
	raw work.MidstateJob
	ctx sha256d.MidstateCtx
}

func (j *MidstateJob) Size() int {
	return work.MidstateJobSize
}

func (j *MidstateJob) Load(raw []byte) {
	// the caller hands in exactly Size bytes
	_, _ = j.raw.Unmarshal(raw)
	j.ctx = j.raw.Ctx()
}

func (j *MidstateJob) Nonce() uint32 {
	return j.ctx.Nonce()
}

func (j *MidstateJob) SetNonce(n uint32) {
	j.ctx.SetNonce(n)
}

func (j *MidstateJob) Hash() sha256d.Digest {
	return j.ctx.Hash()
}

// HeaderJob hashes the full 80 byte header on every step.
type HeaderJob struct {
	raw work.HeaderJob
}

func (j *HeaderJob) Size() int {
	return work.HeaderSize
}

func (j *HeaderJob) Load(raw []byte) {
	_, _ = j.raw.Unmarshal(raw)
}

func (j *HeaderJob) Nonce() uint32 {
	return j.raw.Nonce()
}

func (j *HeaderJob) SetNonce(n uint32) {
	j.raw.SetNonce(n)
}

func (j *HeaderJob) Hash() sha256d.Digest {
	return j.raw.Hash()
}
