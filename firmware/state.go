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

package firmware

import (
	"fmt"
	"sync"
	"sync/atomic"

	"btcminer/common"
	"btcminer/sha256d"
	"btcminer/work"
)

type StepResult uint8

const (
	// nothing to do
	StepIdle StepResult = iota
	// the nonce did not hit, the next one is loaded
	StepMiss
	// the nonce satisfies the device difficulty
	StepHit
	// the end of the nonce space was reached
	StepExhausted
)

func (r StepResult) String() string {
	switch r {
	case StepIdle:
		return "idle"
	case StepMiss:
		return "miss"
	case StepHit:
		return "hit"
	case StepExhausted:
		return "exhausted"
	}
	return fmt.Sprintf("StepResult(%d)", uint8(r))
}

// Step is the outcome of one iteration of the scan loop.
type Step struct {
	Result StepResult
	// nonce the step worked on
	Nonce  uint32
	Digest sha256d.Digest
}

// JobState owns the live job and the scan state.
//
// Publish is called from the receive path, Step from the scan loop. Both run
// inside the critical section cs so a job is never replaced in the middle of
// a hash.
type JobState struct {
	cs     sync.Locker
	leds   Indicator
	policy common.SuccessPolicy
	job    Job
	// common.ScanState, readable without entering cs
	state atomic.Uint32
}

func NewJobState(job Job, cs sync.Locker, leds Indicator, policy common.SuccessPolicy) *JobState {
	return &JobState{
		cs:     cs,
		leds:   leds,
		policy: policy,
		job:    job,
	}
}

func (s *JobState) State() common.ScanState {
	return common.ScanState(s.state.Load())
}

// Publish replaces the job by raw (exactly one job in size) and starts
// scanning it. A job in progress is abandoned.
//
// Returns the initial nonce of the new job.
func (s *JobState) Publish(raw []byte) uint32 {
	s.cs.Lock()
	defer s.cs.Unlock()

	s.job.Load(raw)
	s.setState(common.Processing)
	return s.job.Nonce()
}

// Step hashes the current nonce and advances the scan.
//
// The nonce 0xFFFFFFFF ends the scan without being hashed.
func (s *JobState) Step() Step {
	if s.State() != common.Processing {
		return Step{Result: StepIdle}
	}

	s.cs.Lock()
	defer s.cs.Unlock()

	// a publish can not end a scan, but keep the check inside the section
	if s.State() != common.Processing {
		return Step{Result: StepIdle}
	}

	n := s.job.Nonce()
	if n == work.MaxNonce {
		s.setState(common.Idle)
		return Step{Result: StepExhausted, Nonce: n}
	}

	d, hit := checkHash(s.job)
	if hit {
		if s.policy == common.ReturnToIdle {
			s.setState(common.Idle)
		} else {
			s.job.SetNonce(n + 1)
		}
		return Step{Result: StepHit, Nonce: n, Digest: d}
	}

	s.job.SetNonce(n + 1)
	return Step{Result: StepMiss, Nonce: n, Digest: d}
}

// checkHash is one hash and compare, the unit the hashrate is measured in.
func checkHash(job Job) (sha256d.Digest, bool) {
	d := job.Hash()
	return d, sha256d.Meets(d)
}

// only call with cs held
func (s *JobState) setState(st common.ScanState) {
	s.state.Store(uint32(st))
	if st == common.Processing {
		s.leds.Set(LEDProcessing)
	} else {
		s.leds.Clear(LEDProcessing)
	}
}
