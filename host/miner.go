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

package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"btcminer/common"
	"btcminer/sha256d"
	"btcminer/work"
)

const (
	// how long the device has to be silent before new work is sent
	drainTimeout = 20 * time.Millisecond
	// upper bound of stale bytes discarded before new work is sent
	maxDrain = 1024
)

// Share is a nonce reported by a device.
type Share struct {
	Device string
	Nonce  uint32
	Hash   sha256d.Digest
	// the share is a valid proof of work for the block
	Block   bool
	Elapsed time.Duration
}

// Miner hands work to a single device and reads back its shares.
type Miner struct {
	log     *slog.Logger
	dev     Device
	timeout time.Duration
	buf     []byte
}

func NewMiner(log *slog.Logger, dev Device, timeout time.Duration) *Miner {
	return &Miner{
		log:     log.With("module", "miner", "device", dev.Name()),
		dev:     dev,
		timeout: timeout,
	}
}

func (m *Miner) Device() Device {
	return m.dev
}

// Encode serializes h as job for the given variant.
func Encode(buf []byte, h *work.BlockHeader, v common.Variant) ([]byte, error) {
	if v == common.VariantHeader {
		j := work.NewHeaderJob(h)
		return j.Marshal(buf)
	}
	j := work.NewMidstateJob(h)
	return j.Marshal(buf)
}

// Mine sends h to the device, which starts at h.Nonce, and waits for a share.
//
// Returns [ErrTimeout] if the device stays silent and [ErrInvalidShare] if
// it only reported nonces not satisfying the device target. A share meeting the
// device target but not the block target is returned with Block unset.
func (m *Miner) Mine(ctx context.Context, h work.BlockHeader) (Share, error) {
	var err error
	m.buf, err = Encode(m.buf[:0], &h, m.dev.Variant())
	if err != nil {
		return Share{}, err
	}

	m.drain(ctx)

	m.log.Info("Sending work", "nonce", fmt.Sprintf("0x%08x", h.Nonce), "bits", fmt.Sprintf("0x%08x", h.Bits))
	m.log.Debug("Job", "raw", fmt.Sprintf("%x", m.buf))
	start := time.Now()
	if _, err := m.dev.Write(m.buf); err != nil {
		return Share{}, fmt.Errorf("send work to %s: %w", m.dev.Name(), err)
	}

	rctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	// A reply of the previous job may still be on its way when the new job
	// is sent. Such a reply does not meet the device target for h and is
	// skipped, ErrInvalidShare is only reported if nothing valid follows.
	var invalid *Share
	for {
		s, err := m.readShare(ctx, rctx, h, start)
		if err != nil {
			if errors.Is(err, ErrTimeout) && invalid != nil {
				return *invalid, fmt.Errorf("nonce 0x%08x: %w", invalid.Nonce, ErrInvalidShare)
			}
			return Share{}, err
		}
		if sha256d.Meets(s.Hash) {
			return m.accept(ctx, s, h.Bits), nil
		}
		m.log.Warn("Skipping reply not meeting the device target", "nonce", fmt.Sprintf("0x%08x", s.Nonce))
		invalid = &s
	}
}

// readShare reads one reply and evaluates it against h.
func (m *Miner) readShare(ctx, rctx context.Context, h work.BlockHeader, start time.Time) (Share, error) {
	var reply [work.ReplySize]byte
	for off := 0; off < len(reply); {
		n, err := m.dev.ReadContext(rctx, reply[off:])
		off += n
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				m.log.Info("Response timeout")
				return Share{}, ErrTimeout
			}
			return Share{}, fmt.Errorf("read share from %s: %w", m.dev.Name(), err)
		}
	}

	var r work.Reply
	_, _ = r.Unmarshal(reply[:])
	h.Nonce = r.Nonce
	s := Share{
		Device:  m.dev.Name(),
		Nonce:   r.Nonce,
		Hash:    h.Hash(),
		Elapsed: time.Since(start),
	}
	m.log.Info("Received share", "nonce", fmt.Sprintf("0x%08x", s.Nonce), "hash", s.Hash.Reverse())
	return s, nil
}

func (m *Miner) accept(ctx context.Context, s Share, bits uint32) Share {
	s.Block = work.MeetsTarget(s.Hash, work.TargetFromBits(bits))
	if s.Block {
		m.log.Info("Found a valid hash for the block", "nonce", fmt.Sprintf("0x%08x", s.Nonce))
	}
	m.log.Log(ctx, common.LevelTest, "share received", "nonce", s.Nonce, "hash", s.Hash.String())
	return s
}

// drain discards what the device sent before the next job, e.g. a share of
// a job that timed out or further shares of a device that keeps scanning.
func (m *Miner) drain(ctx context.Context) {
	var buf [64]byte
	dropped := 0
	for dropped < maxDrain {
		dctx, cancel := context.WithTimeout(ctx, drainTimeout)
		n, err := m.dev.ReadContext(dctx, buf[:])
		cancel()
		dropped += n
		if err != nil {
			break
		}
	}
	if dropped > 0 {
		m.log.Debug("Dropped stale bytes", "dropped", dropped)
	}
}
