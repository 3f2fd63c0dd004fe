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

// Command main runs the mining firmware on an emulated board attached to a
// serial port, a pty or stdin/stdout.
package main

import (
	"os"
	"os/signal"
	"syscall"

	mcu "btcminer/main"
)

func main() {
	// init
	m := mcu.NewMain()

	// run
	initFin := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		m.Run(initFin)
		close(done)
	}()
	if err := <-initFin; err != nil {
		panic(err)
	}

	// teardown
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGINT)
	select {
	case <-c:
	case <-done:
	}
	m.Close()
}
