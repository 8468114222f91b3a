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
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/st2205tools/st2205-core/pkg/cli"
	"github.com/st2205tools/st2205-core/pkg/config"
	"github.com/st2205tools/st2205-core/pkg/helpers"
	"github.com/st2205tools/st2205-core/pkg/st2205"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if msg, ok := cli.FirmwareFailure(err); ok {
			_, _ = fmt.Fprintln(os.Stderr, msg)
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("phack", flag.ContinueOnError)
	flags.SetOutput(stderr)
	debug := flags.Bool(
		"debug",
		false,
		"log debug output to stderr",
	)
	version := flags.Bool(
		"version",
		false,
		"print version and exit",
	)
	flags.Usage = func() {
		cli.PrintUsage(stderr, "phack")
		_, _ = fmt.Fprintln(stderr, "Flags (before DEVICE):")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}

	if *version {
		_, _ = fmt.Fprintf(stdout, "phack v%s\n", config.AppVersion)
		return nil
	}

	inv, err := cli.ParseArgs(flags.Args())
	if err != nil {
		if errors.Is(err, cli.ErrUsage) {
			flags.Usage()
		}
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

	path, err := cli.ResolveDevice(inv.Device, cfg)
	if err != nil {
		return err
	}

	dev, err := st2205.Open(path, cli.DeviceOptions(cfg))
	if err != nil {
		return fmt.Errorf("no photo frame found at %s: %w", path, err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing device")
		}
	}()

	runner := cli.NewRunner(stdout, stderr, cfg.BackupDir(helpers.DataDir()))
	return runner.Run(dev, inv)
}
