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
	"sync"
	"time"

	"btcminer/common"
	"btcminer/internal/packetcounter"
	"btcminer/work"

	"golang.org/x/sync/errgroup"
)

// Result of mining one header on one device.
type Result struct {
	// index of the header in the work list
	Job    int
	Device string
	Share  Share
	// nil, ErrTimeout or ErrInvalidShare
	Err error
}

// Manager distributes headers over several devices.
type Manager struct {
	log     *slog.Logger
	miners  []*Miner
	timeout time.Duration
	bucket  time.Duration
}

func NewManager(log *slog.Logger, devices []Device, timeout, bucket time.Duration) *Manager {
	m := &Manager{
		log:     log.With("module", "manager"),
		timeout: timeout,
		bucket:  bucket,
	}
	for _, d := range devices {
		m.miners = append(m.miners, NewMiner(log, d, timeout))
	}
	return m
}

// Run connects all devices and mines every header on the first free device.
// found is called for every result, never concurrently.
//
// Timeouts and invalid shares are reported through found, any other device
// error stops all devices and is returned.
func (m *Manager) Run(ctx context.Context, headers []work.BlockHeader, found func(Result)) error {
	if len(m.miners) == 0 {
		return errors.New("no mining devices")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, mi := range m.miners {
		if err := mi.dev.Connect(gctx); err != nil {
			m.closeAll()
			return fmt.Errorf("connect %s: %w", mi.dev.Name(), err)
		}
	}
	defer m.closeAll()

	var mu sync.Mutex
	shares := packetcounter.NewCounter(func(t time.Time, cnt uint) {
		m.log.Info("Shares", "bucket", t, "count", cnt)
		m.log.Log(ctx, common.LevelTest, "shares", "TimeBucket", t, "Cnt", cnt)
	}, m.bucket)
	defer func() {
		mu.Lock()
		shares.Finalize()
		mu.Unlock()
	}()

	jobs := make(chan int)
	g.Go(func() error {
		defer close(jobs)
		for i := range headers {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for _, mi := range m.miners {
		g.Go(func() error {
			for i := range jobs {
				s, err := mi.Mine(gctx, headers[i])
				if err != nil && !errors.Is(err, ErrTimeout) && !errors.Is(err, ErrInvalidShare) {
					if gctx.Err() != nil {
						return nil
					}
					return err
				}

				mu.Lock()
				if err == nil {
					shares.Add(1)
				}
				found(Result{Job: i, Device: mi.dev.Name(), Share: s, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}

	return g.Wait()
}

func (m *Manager) closeAll() {
	for _, mi := range m.miners {
		if err := mi.dev.Close(); err != nil {
			m.log.Warn("Closing device failed", "device", mi.dev.Name(), "err", err)
		}
	}
}
