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

package board

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

const (
	// bulk packet size of the full speed CDC data endpoints
	CDCPacketSize = 64
	// the UART interrupt fires for every byte
	UARTPacketSize = 1
)

var ErrLinkClosed = errors.New("link closed")

// Link is the byte pipe to the host. Every Read of the underlying stream
// (at most one packet) is handed to the receive callback, like the receive
// interrupt of the board would.
//
// Use [NewLink] to instanciate.
type Link struct {
	log       *slog.Logger
	rw        io.ReadWriter
	maxPacket int

	mu        sync.Mutex
	onReceive func([]byte)
	closed    atomic.Bool
}

func NewLink(log *slog.Logger, rw io.ReadWriter, maxPacket int) *Link {
	return &Link{
		log:       log.With("module", "link"),
		rw:        rw,
		maxPacket: maxPacket,
	}
}

// OnReceive registers f as receive callback. f must not retain the chunk.
func (l *Link) OnReceive(f func(chunk []byte)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onReceive = f
}

// Serve reads from the stream until it is closed or ctx is done.
//
// Cancelling ctx does not interrupt a pending read, [Link.Close] does.
func (l *Link) Serve(ctx context.Context) error {
	buf := make([]byte, l.maxPacket)
	for ctx.Err() == nil {
		n, err := l.rw.Read(buf)
		if n > 0 {
			l.mu.Lock()
			f := l.onReceive
			l.mu.Unlock()
			if f != nil {
				f(buf[:n])
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || l.closed.Load() {
				l.log.Debug("Link closed")
				return nil
			}
			l.log.Error("Reading from link failed", "err", err)
			return err
		}
	}
	return nil
}

// Send writes up to one packet of p and returns the number of bytes written.
func (l *Link) Send(p []byte) (int, error) {
	if l.closed.Load() {
		return 0, ErrLinkClosed
	}
	if len(p) > l.maxPacket {
		p = p[:l.maxPacket]
	}
	n, err := l.rw.Write(p)
	if err != nil && l.closed.Load() {
		return n, ErrLinkClosed
	}
	return n, err
}

// Close closes the underlying stream if it is an [io.Closer].
func (l *Link) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	if c, ok := l.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
