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

// Package mcu runs the mining firmware on an emulated board: the board
// peripherals, the mining core and the link to the host.
package mcu

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"btcminer/board"
	"btcminer/common"
	"btcminer/firmware"
	"btcminer/internal/args"

	"github.com/alexflint/go-arg"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"
	"gopkg.in/ini.v1"
)

// Arguments read using go-arg https://github.com/alexflint/go-arg. The annotation instruct the library on
// the type of comment and optionally the help message.
type UserArgs struct {
	Variant     *string        `ini:"variant" arg:"--variant" help:"Job format: midstate (48 byte) or header (80 byte)"`
	Policy      *string        `ini:"policy" arg:"--policy" help:"After a share was sent: idle (wait for new work) or continue (keep scanning the job)"`
	Link        *string        `ini:"link" arg:"-l,--link" help:"Link to the host: cdc (64 byte packets) or uart (single bytes)"`
	Port        *string        `ini:"port" arg:"-p,--port" help:"Serial port or pty the device is attached to, stdin/stdout if empty"`
	Baud        *int           `ini:"baud" arg:"-b,--baud" help:"Baud rate of the serial port"`
	ClockHz     *uint32        `ini:"clock" arg:"--clock" help:"Core clock in Hz used for the hashrate measurement"`
	Blinks      *int           `ini:"blinks" arg:"--blinks" help:"Number of times the success LED flashes per share"`
	BlinkPeriod *time.Duration `ini:"blink_period" arg:"--blink-period" help:"Toggle period of a blinking LED"`
	Banner      *bool          `ini:"banner" arg:"--banner" help:"Log the welcome banner on startup"`
	ConfigFile  *string        `arg:"-c,--config_file" help:"Path to the configuration file (cli arguments always take predecence)"`
}

// uses the values set in arg as defaults and overwrites the values which are
// set (!= nil) in uarg
func (uarg *UserArgs) Merge(arg args.Args) (args.Args, error) {
	if uarg.Variant != nil {
		v, err := common.ParseVariant(*uarg.Variant)
		if err != nil {
			return arg, err
		}
		arg.Variant = v
	}
	if uarg.Policy != nil {
		p, err := common.ParseSuccessPolicy(*uarg.Policy)
		if err != nil {
			return arg, err
		}
		arg.Policy = p
	}
	if uarg.Link != nil {
		if *uarg.Link != args.LinkCDC && *uarg.Link != args.LinkUART {
			return arg, fmt.Errorf("unknown link %q", *uarg.Link)
		}
		arg.Link = *uarg.Link
	}
	if uarg.Port != nil {
		arg.Port = *uarg.Port
	}
	if uarg.Baud != nil {
		if *uarg.Baud <= 0 {
			return arg, fmt.Errorf("invalid baud rate %d", *uarg.Baud)
		}
		arg.Baud = *uarg.Baud
	}
	if uarg.ClockHz != nil {
		arg.ClockHz = *uarg.ClockHz
	}
	if uarg.Blinks != nil {
		arg.Blinks = *uarg.Blinks
	}
	if uarg.BlinkPeriod != nil {
		arg.BlinkPeriod = *uarg.BlinkPeriod
	}
	if uarg.Banner != nil {
		arg.Banner = *uarg.Banner
	}

	return arg, nil
}

// initialize a [slog.Logger]
//
// Logs go to stderr, stdout may be the link to the host.
func logInit(identifier any) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.RFC3339,
		NoColor:    false,
	})).With("id", identifier)
}

// read the cli arguments and, if requested, the [device] section of the ini
// file
func loadArgs() args.Args {
	// obtain the arguments with the default values set
	a := args.NewFromDefaults()

	// read the cli arguments
	var cargs UserArgs
	arg.MustParse(&cargs)

	// if set also read the ini arguments
	if cargs.ConfigFile != nil {
		cfg, err := ini.Load(*cargs.ConfigFile)
		if err != nil {
			panic(err)
		}
		var iargs UserArgs
		if err = cfg.Section("device").MapTo(&iargs); err != nil {
			panic(err)
		}

		// use args as defaults and overwrite those values which were set by
		// the ini config file
		if a, err = iargs.Merge(a); err != nil {
			panic(err)
		}
	}

	// merge in the end as cli takes predecence
	a, err := cargs.Merge(a)
	if err != nil {
		panic(err)
	}
	return a
}

type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error {
	return os.Stdin.Close()
}

// Main is the emulated board running the mining firmware.
//
// Use either [NewMainWithArgs] or [NewMain] to instanciate
type Main struct {
	log    *slog.Logger
	mlog   *slog.Logger
	args   args.Args
	uid    [3]uint32
	link   *board.Link
	leds   *board.LEDs
	engine *firmware.Engine
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Used to instanciate [Main] with a certain set of arguments (does not attempt
// to parse arguments from anywhere). port is the byte stream to the host, it
// is closed by [Main.Close].
func NewMainWithArgs(a args.Args, log *slog.Logger, port io.ReadWriteCloser) *Main {
	m := &Main{
		args: a,
		uid:  board.EmulatedUID(),
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.log = log
	m.mlog = m.log.With("module", "main")

	m.mlog.Debug("CMD ARGS",
		"variant", m.args.Variant,
		"policy", m.args.Policy,
		"link", m.args.Link,
		"port", m.args.Port,
		"baud", m.args.Baud,
		"clock", m.args.ClockHz,
	)

	packet := board.CDCPacketSize
	if m.args.Link == args.LinkUART {
		packet = board.UARTPacketSize
	}
	m.link = board.NewLink(m.log, port, packet)
	m.leds = board.NewLEDs(m.log, m.args.BlinkPeriod)

	cfg := firmware.Config{
		Variant: m.args.Variant,
		Policy:  m.args.Policy,
		ClockHz: m.args.ClockHz,
		Blinks:  m.args.Blinks,
	}
	cycles := board.NewSysTick(m.args.ClockHz, board.Reload, nil)
	m.engine = firmware.New(m.log, cfg, m.link, m.leds, cycles, &board.IRQ{})
	m.link.OnReceive(m.engine.OnBytesReceived)

	return m
}

// Used to instanciate [Main] without special arguments. Will start parsing the
// cli arguments and depending on the arguments continue with parsing arguments
// from an ini file.
func NewMain() *Main {
	a := loadArgs()

	port, err := openPort(a)
	if err != nil {
		panic(err)
	}

	return NewMainWithArgs(a, logInit(board.SerialNumber(board.EmulatedUID())), port)
}

// openPort opens the link to the host. A serial port is put into raw mode,
// the bytes of a job must reach the board unaltered.
func openPort(a args.Args) (io.ReadWriteCloser, error) {
	if a.Port == "" {
		return stdio{os.Stdin, os.Stdout}, nil
	}
	return board.OpenSerial(a.Port, a.Baud, 0)
}

// Start the board.
//
// This function will send `nil` on `initFinished` once the hashrate was
// measured and the link is served. Run returns when [Main.Close] is called or
// the host closes the link.
func (m *Main) Run(initFinished chan<- error) {
	ctx := m.ctx
	m.wg.Add(1)
	defer m.wg.Done()

	if m.args.Banner {
		m.engine.Welcome(board.Info(m.uid, m.args.Link == args.LinkCDC), m.engine.MeasureHashrate())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// without a host there is nothing to mine for
		defer m.cancel()
		return m.link.Serve(gctx)
	})
	g.Go(func() error {
		return m.engine.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return m.link.Close()
	})
	initFinished <- nil

	if err := g.Wait(); err != nil {
		m.mlog.Error("Board stopped", "err", err)
	}
	m.leds.Wait()
	m.mlog.Info("Main terminating")
}

// State of the scan loop
func (m *Main) State() common.ScanState {
	return m.engine.State()
}

// terminate the board
//
// The link is closed as well, also if the board never ran.
func (m *Main) Close() error {
	m.cancel()
	m.wg.Wait()
	return m.link.Close()
}
