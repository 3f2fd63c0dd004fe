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
	"sync"

	"btcminer/common"
	"btcminer/internal/reassembly"
	"btcminer/pow"
	"btcminer/sha256d"
	"btcminer/work"
)

// SimulatorDevice behaves like a board mining full headers but searches on
// the CPU of the host.
type SimulatorDevice struct {
	name string

	mu        sync.Mutex
	connected bool
	buf       *reassembly.Buffer
	job       *work.HeaderJob
	// reply bytes not read yet
	out []byte
}

func NewSimulatorDevice(name string) *SimulatorDevice {
	return &SimulatorDevice{
		name: name,
		buf:  reassembly.New(work.HeaderSize),
	}
}

func (d *SimulatorDevice) Name() string {
	return d.name
}

func (d *SimulatorDevice) Variant() common.Variant {
	return common.VariantHeader
}

func (d *SimulatorDevice) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = true
	return nil
}

func (d *SimulatorDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false
	d.buf.Reset()
	d.job, d.out = nil, nil
	return nil
}

// Write collects a job, bytes beyond the end of a job are dropped.
func (d *SimulatorDevice) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return 0, ErrNotConnected
	}

	d.buf.Append(p)
	if d.buf.Complete() {
		var job work.HeaderJob
		_, _ = job.Unmarshal(d.buf.Bytes())
		d.job = &job
		d.out = nil
		d.buf.Reset()
	}
	return len(p), nil
}

// ReadContext searches the pending job and returns the reply. Without a job
// or a share it blocks until ctx is done.
func (d *SimulatorDevice) ReadContext(ctx context.Context, p []byte) (int, error) {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return 0, ErrNotConnected
	}
	if len(d.out) > 0 {
		n := copy(p, d.out)
		d.out = d.out[n:]
		d.mu.Unlock()
		return n, nil
	}
	job := d.job
	d.mu.Unlock()

	if job == nil {
		<-ctx.Done()
		return 0, ctx.Err()
	}

	nonce, err := pow.Search(ctx, *job, job.Nonce(), sha256d.Meets)
	if errors.Is(err, pow.ErrExhausted) {
		d.mu.Lock()
		if d.job == job {
			d.job = nil
		}
		d.mu.Unlock()
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.job != job {
		// replaced while searching, the share belongs to the old job
		return 0, nil
	}
	d.job = nil
	r := work.Reply{Nonce: nonce}
	d.out, _ = r.Marshal(nil)
	n := copy(p, d.out)
	d.out = d.out[n:]
	return n, nil
}
