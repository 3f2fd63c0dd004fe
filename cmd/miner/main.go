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

// Command miner hands block headers to mining devices and verifies the shares
// they find.
package main

import (
	"context"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"btcminer/host"
	"btcminer/internal/args"
	"btcminer/work"

	"github.com/alexflint/go-arg"
	"github.com/jszwec/csvutil"
	"github.com/lmittmann/tint"
	"gopkg.in/ini.v1"
)

// Arguments read using go-arg https://github.com/alexflint/go-arg.
type UserArgs struct {
	Devices    []string       `ini:"devices" arg:"-d,--device,separate" help:"Mining device: serial:<port>[:baud][:variant], usb[:variant], emulator[:variant] or simulator"`
	Autodetect *bool          `ini:"autodetect" arg:"-a,--autodetect" help:"Probe all serial ports for mining devices"`
	Bauds      []int          `ini:"bauds" arg:"--baud,separate" help:"Baud rate tried when probing serial ports, in order (default 115200 57600 38400 19200 9600)"`
	Timeout    *time.Duration `ini:"timeout" arg:"-t,--timeout" help:"Time a device has to find a share"`
	Stats      *string        `ini:"stats" arg:"-s,--stats" help:"Write every share to this CSV file"`
	Bucket     *time.Duration `ini:"bucket" arg:"--bucket" help:"Duration of the buckets shares are counted in"`
	Headers    []string       `ini:"headers" arg:"positional" help:"Block headers to mine, 80 bytes as hex each"`
	ConfigFile *string        `arg:"-c,--config_file" help:"Path to the configuration file (cli arguments always take predecence)"`
}

// uses the values set in arg as defaults and overwrites the values which are
// set (!= nil) in uarg
func (uarg *UserArgs) Merge(arg args.MinerArgs) args.MinerArgs {
	if uarg.Devices != nil {
		arg.Devices = uarg.Devices
	}
	if uarg.Autodetect != nil {
		arg.Autodetect = *uarg.Autodetect
	}
	if uarg.Bauds != nil {
		arg.Bauds = uarg.Bauds
	}
	if uarg.Timeout != nil {
		arg.Timeout = *uarg.Timeout
	}
	if uarg.Stats != nil {
		arg.Stats = *uarg.Stats
	}
	if uarg.Bucket != nil {
		arg.Bucket = *uarg.Bucket
	}
	if uarg.Headers != nil {
		arg.Headers = uarg.Headers
	}
	return arg
}

func logInit() *slog.Logger {
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.RFC3339,
		NoColor:    false,
	}))
}

func loadArgs() args.MinerArgs {
	a := args.NewMinerFromDefaults()

	var cargs UserArgs
	arg.MustParse(&cargs)

	if cargs.ConfigFile != nil {
		cfg, err := ini.Load(*cargs.ConfigFile)
		if err != nil {
			panic(err)
		}
		var iargs UserArgs
		if err = cfg.Section("miner").MapTo(&iargs); err != nil {
			panic(err)
		}
		a = iargs.Merge(a)
	}

	return cargs.Merge(a)
}

// one line of the statistics file
type shareRecord struct {
	Time    time.Time `csv:"time"`
	Job     int       `csv:"job"`
	Device  string    `csv:"device"`
	Nonce   string    `csv:"nonce"`
	Hash    string    `csv:"hash"`
	Block   bool      `csv:"block"`
	Elapsed float64   `csv:"elapsed_s"`
	Error   string    `csv:"error,omitempty"`
}

func newRecord(r host.Result) shareRecord {
	rec := shareRecord{
		Time:   time.Now(),
		Job:    r.Job,
		Device: r.Device,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	if r.Err == nil || r.Share.Nonce != 0 {
		rec.Nonce = fmt.Sprintf("%08x", r.Share.Nonce)
		rec.Hash = r.Share.Hash.Reverse().String()
		rec.Block = r.Share.Block
		rec.Elapsed = r.Share.Elapsed.Seconds()
	}
	return rec
}

func parseHeaders(hs []string) ([]work.BlockHeader, error) {
	headers := make([]work.BlockHeader, 0, len(hs))
	for i, s := range hs {
		raw, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("header %d: %w", i, err)
		}
		if len(raw) != work.HeaderSize {
			return nil, fmt.Errorf("header %d: %d bytes, expected %d", i, len(raw), work.HeaderSize)
		}
		var h work.BlockHeader
		if _, err := h.Unmarshal(raw); err != nil {
			return nil, fmt.Errorf("header %d: %w", i, err)
		}
		headers = append(headers, h)
	}
	return headers, nil
}

func main() {
	a := loadArgs()
	log := logInit()
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	headers, err := parseHeaders(a.Headers)
	if err != nil {
		panic(err)
	}

	opts := host.NewOptions(log)
	var devices []host.Device
	var ports []string
	for _, desc := range a.Devices {
		d, err := host.ParseDevice(desc, opts)
		if err != nil {
			panic(err)
		}
		if s, ok := d.(*host.SerialDevice); ok {
			ports = append(ports, s.Port())
		}
		devices = append(devices, d)
	}
	if a.Autodetect {
		log.Info("Auto-detecting serial mining devices ...")
		devices = append(devices, host.Autodetect(ctx, log, ports, a.Bauds, 5*time.Second)...)
	}
	if len(devices) == 0 {
		log.Error("No mining devices configured or found")
		os.Exit(1)
	}

	record := func(host.Result) {}
	if a.Stats != "" {
		f, err := os.Create(a.Stats)
		if err != nil {
			panic(err)
		}
		defer f.Close()
		w := csv.NewWriter(f)
		defer w.Flush()
		enc := csvutil.NewEncoder(w)
		record = func(r host.Result) {
			if err := enc.Encode(newRecord(r)); err != nil {
				log.Error("Writing statistics failed", "err", err)
			}
		}
	}

	found := 0
	m := host.NewManager(log, devices, a.Timeout, a.Bucket)
	err = m.Run(ctx, headers, func(r host.Result) {
		record(r)
		if r.Err == nil && r.Share.Block {
			found++
		}
	})
	if err != nil {
		log.Error("Mining stopped", "err", err)
	}
	log.Info("Done", "headers", len(headers), "blocks", found)
}
