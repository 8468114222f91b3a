// ST2205 Tools
// Copyright (c) 2026 The ST2205 Tools Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of ST2205 Tools.
//
// ST2205 Tools is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ST2205 Tools is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ST2205 Tools.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/st2205tools/st2205-core/pkg/cli"
	"github.com/st2205tools/st2205-core/pkg/config"
	"github.com/st2205tools/st2205-core/pkg/helpers"
	"github.com/st2205tools/st2205-core/pkg/imaging"
	"github.com/st2205tools/st2205-core/pkg/st2205"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func usage(flags *flag.FlagSet) func() {
	return func() {
		out := flags.Output()
		_, _ = fmt.Fprintln(out, "Usage:\n setpic [flags] DEVICE [FILE|DIR]")
		_, _ = fmt.Fprintln(out, "  sends a picture, or every picture in a directory, to the frame")
		_, _ = fmt.Fprintln(out, "  DEVICE may be auto; DIR defaults to the configured slideshow dir")
		_, _ = fmt.Fprintln(out, "Flags:")
		flags.PrintDefaults()
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("setpic", flag.ContinueOnError)
	flags.SetOutput(stderr)
	debug := flags.Bool("debug", false, "log debug output to stderr")
	mode := flags.String("mode", imaging.Letterbox.String(), "scaling: letterbox, stretch or crop")
	loop := flags.Bool("loop", false, "cycle a directory until interrupted")
	watch := flags.Bool("watch", false, "rescan the directory when it changes (with -loop)")
	interval := flags.Duration("interval", 0, "time per picture with -loop (default from config)")
	fps := flags.Float64("fps", 0, "maximum frames per second (default from config)")
	dryRun := flags.String("dry-run", "", "write the encoded stream to `FILE` instead of the frame")
	backlight := flags.String("backlight", "", "switch the backlight on or off and exit")
	lcd := flags.String("lcd", "", "sleep or wake the LCD and exit")
	flags.Usage = usage(flags)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}

	if flags.NArg() < 1 {
		flags.Usage()
		return fmt.Errorf("%w: need a device", cli.ErrUsage)
	}

	scale, err := imaging.ParseMode(*mode)
	if err != nil {
		return err
	}

	var logWriters []io.Writer
	if *debug {
		logWriters = []io.Writer{helpers.ConsoleWriter()}
	}
	cfg, err := cli.Setup(config.BaseDefaults, logWriters, *debug)
	if err != nil {
		return err
	}

	path, err := cli.ResolveDevice(flags.Arg(0), cfg)
	if err != nil {
		return err
	}
	dev, err := st2205.Open(path, cli.DeviceOptions(cfg))
	if err != nil {
		return fmt.Errorf("open failed: %w", err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing device")
		}
	}()
	_, _ = fmt.Fprintf(stdout, "Found device: %s\n", dev.Geometry())

	switch {
	case *backlight != "":
		switch *backlight {
		case "on":
			return dev.Backlight(true)
		case "off":
			return dev.Backlight(false)
		}
		return fmt.Errorf("backlight takes on or off, not %q", *backlight)
	case *lcd != "":
		switch *lcd {
		case "sleep":
			return dev.LCDSleep(true)
		case "wake":
			return dev.LCDSleep(false)
		}
		return fmt.Errorf("lcd takes sleep or wake, not %q", *lcd)
	}

	target := flags.Arg(1)
	if target == "" {
		target = cfg.SlideshowDir()
	}
	if target == "" {
		return errors.New("nothing to show: give a file or directory, or set slideshow.dir")
	}

	opts := cli.SetpicOptions{
		DryRun:   *dryRun,
		Interval: cfg.SlideshowInterval(),
		FPS:      cfg.SlideshowFPS(),
		Mode:     scale,
		Loop:     *loop,
		Watch:    *watch || cfg.SlideshowWatch(),
	}
	if *interval > 0 {
		opts.Interval = *interval
	}
	if *fps > 0 {
		opts.FPS = *fps
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return cli.Setpic(ctx, dev, target, opts)
}
