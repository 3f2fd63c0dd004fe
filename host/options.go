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
	"fmt"
	"log/slog"
)

// Options shared by the devices created with [ParseDevice].
type Options struct {
	Log *slog.Logger
	// per type counter for generated names
	names map[string]int
}

func NewOptions(log *slog.Logger) Options {
	return Options{Log: log, names: make(map[string]int)}
}

// NextName returns a unique name for a device of the given type.
func (o Options) NextName(kind string) string {
	if o.names == nil {
		return kind
	}
	o.names[kind]++
	return fmt.Sprintf("%s-%d", kind, o.names[kind])
}
