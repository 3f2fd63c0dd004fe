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
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"btcminer/common"
	testlog "btcminer/internal/testLog"
)

// LogInit returns a logger writing only [common.LevelTest] events to w, one
// JSON object per line. Read them back with [FilterLog].
func LogInit(w io.Writer, id string) *slog.Logger {
	log := slog.New(testlog.NewTestHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: common.LevelTest,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				level := a.Value.Any().(slog.Level)
				a.Value = slog.IntValue(int(level))
			}
			return a
		},
	},
	), common.LevelTest))
	return log.With("id", id)
}

// Event is a test event emitted by the device or the host.
type Event struct {
	// logging items
	Time  time.Time
	Level int
	Msg   string
	// set by LogInit
	Id string
	// nonce the event refers to (job published, share found, ...)
	Nonce uint32
	Hash  string
	// number of shares / hashes in a statistics bucket
	Cnt        uint
	TimeBucket time.Time
}

// FilterLog decodes the events written to r and passes them to c until r is
// exhausted or ctx is cancelled.
func FilterLog(ctx context.Context, c chan<- Event, r io.Reader) {
	d := json.NewDecoder(r)
	for {
		var e Event
		if err := d.Decode(&e); err != nil {
			return
		}
		if e.Level != int(common.LevelTest) {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case c <- e:
		}
	}
}
