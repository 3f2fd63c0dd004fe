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
	"log/slog"

	"btcminer/common"
	"btcminer/internal/reassembly"
)

// Ingestor assembles jobs from the chunks the transport delivers and
// publishes every complete one.
//
// OnBytesReceived must not be called concurrently, it models the receive
// interrupt of the board.
type Ingestor struct {
	log   *slog.Logger
	buf   *reassembly.Buffer
	state *JobState
}

func NewIngestor(log *slog.Logger, size int, state *JobState) *Ingestor {
	return &Ingestor{
		log:   log,
		buf:   reassembly.New(size),
		state: state,
	}
}

// OnBytesReceived appends chunk to the pending job. Bytes of chunk beyond the
// end of the job are dropped.
func (i *Ingestor) OnBytesReceived(chunk []byte) {
	if n := i.buf.Append(chunk); n < len(chunk) {
		i.log.Debug("Dropped overrun bytes", "dropped", len(chunk)-n)
	}
	if !i.buf.Complete() {
		return
	}

	nonce := i.state.Publish(i.buf.Bytes())
	i.buf.Reset()

	i.log.Log(context.Background(), common.LevelTest, "job published", "nonce", nonce)
}

// Pending returns the number of bytes of the next job received so far.
func (i *Ingestor) Pending() int {
	return i.buf.Len()
}
