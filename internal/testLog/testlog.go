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

// Package testlog provides a [slog.Handler] letting only machine readable
// test events through.
package testlog

import (
	"context"
	"log/slog"
	"slices"
)

// TestHandler passes records of the listed levels only. Records of any other
// level, even higher ones, are dropped.
type TestHandler struct {
	handler slog.Handler
	levels  []slog.Level
}

func NewTestHandler(handler slog.Handler, levels ...slog.Level) *TestHandler {
	return &TestHandler{
		handler: handler,
		levels:  levels,
	}
}

func (h *TestHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.Contains(h.levels, level) && h.handler.Enabled(ctx, level)
}

func (h *TestHandler) Handle(ctx context.Context, r slog.Record) error {
	if !slices.Contains(h.levels, r.Level) {
		return nil
	}
	return h.handler.Handle(ctx, r)
}

func (h *TestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TestHandler{
		handler: h.handler.WithAttrs(attrs),
		levels:  h.levels,
	}
}

func (h *TestHandler) WithGroup(name string) slog.Handler {
	return &TestHandler{
		handler: h.handler.WithGroup(name),
		levels:  h.levels,
	}
}
