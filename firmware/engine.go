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
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"btcminer/common"
	"btcminer/work"
)

// number of steps between two checks for cancellation while scanning
const cancelCheckInterval = 1 << 12

// Config of the mining core.
type Config struct {
	Variant common.Variant
	Policy  common.SuccessPolicy
	// core clock in Hz, the rate of the cycle counter
	ClockHz uint32
	// how often the success LED blinks on a share
	Blinks int
}

// Engine is the mining core of the device.
//
// Use [New] to instanciate.
type Engine struct {
	log    *slog.Logger
	mlog   *slog.Logger
	cfg    Config
	tx     Transport
	leds   Indicator
	cycles CycleCounter
	state  *JobState
	ingest *Ingestor
	// reply is only written by the scan loop
	reply [work.ReplySize]byte
}

// New wires the core to the board. cs is the critical section shared between
// the receive path and the scan loop.
func New(log *slog.Logger, cfg Config, tx Transport, leds Indicator, cycles CycleCounter, cs sync.Locker) *Engine {
	e := &Engine{
		log:    log,
		mlog:   log.With("module", "firmware"),
		cfg:    cfg,
		tx:     tx,
		leds:   leds,
		cycles: cycles,
	}
	e.state = NewJobState(NewJob(cfg.Variant), cs, leds, cfg.Policy)
	e.ingest = NewIngestor(log.With("module", "ingest"), cfg.Variant.JobSize(), e.state)
	return e
}

// OnBytesReceived is the receive callback to register with the transport.
func (e *Engine) OnBytesReceived(chunk []byte) {
	e.ingest.OnBytesReceived(chunk)
}

func (e *Engine) State() common.ScanState {
	return e.state.State()
}

// Run is the scan loop. It returns nil once ctx is cancelled or the error of
// the transport if a reply could not be sent.
func (e *Engine) Run(ctx context.Context) error {
	e.mlog.Info("Scan loop started", "variant", e.cfg.Variant, "policy", e.cfg.Policy)
	defer e.mlog.Info("Scan loop terminating")

	for i := 0; ; i++ {
		st := e.state.Step()
		switch st.Result {
		case StepIdle:
			if ctx.Err() != nil {
				return nil
			}
			runtime.Gosched()
			continue
		case StepMiss:
		case StepHit:
			e.mlog.Info("Found nonce", "nonce", fmt.Sprintf("0x%08x", st.Nonce), "hash", st.Digest)
			if err := e.SendNonce(st.Nonce); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			e.leds.Blink(LEDSuccess, e.cfg.Blinks)
			e.log.Log(ctx, common.LevelTest, "share found", "nonce", st.Nonce, "hash", st.Digest.String())
		case StepExhausted:
			e.mlog.Info("Nonce space exhausted")
			e.log.Log(ctx, common.LevelTest, "nonce space exhausted", "nonce", st.Nonce)
		}

		if i%cancelCheckInterval == 0 && ctx.Err() != nil {
			return nil
		}
	}
}

// SendNonce transmits nonce as a 4 byte big endian reply. It retries as long
// as the transport is busy.
func (e *Engine) SendNonce(nonce uint32) error {
	r := work.Reply{Nonce: nonce}
	_ = r.Put(e.reply[:])

	for off := 0; off < len(e.reply); {
		n, err := e.tx.Send(e.reply[off:])
		if err != nil {
			e.mlog.Error("Sending nonce failed", "nonce", nonce, "err", err)
			return fmt.Errorf("send nonce: %w", err)
		}
		off += n
	}
	return nil
}

// MeasureHashrate times a single hash check on a scratch job with the cycle
// counter and returns the resulting hashes per second.
func (e *Engine) MeasureHashrate() uint32 {
	job := NewJob(e.cfg.Variant)
	job.Load(make([]byte, job.Size()))

	wraps := e.cycles.Overflows()
	e.cycles.Reset()
	checkHash(job)
	cyc := e.cycles.Cycles()
	wraps = e.cycles.Overflows() - wraps

	elapsed := uint64(wraps)*uint64(e.cycles.Period()) + uint64(cyc)
	if elapsed == 0 {
		elapsed = 1
	}
	rate := uint32(uint64(e.cfg.ClockHz) / elapsed)
	e.mlog.Debug("Measured hashrate", "cycles", elapsed, "hashrate", rate)
	return rate
}
