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

package cli

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/st2205tools/st2205-core/pkg/config"
	"github.com/st2205tools/st2205-core/pkg/helpers"
	"github.com/st2205tools/st2205-core/pkg/st2205"
)

// AutoDevice as the device argument searches for the frame.
const AutoDevice = "auto"

// Setup initializes logging and the user config.
//
//nolint:gocritic // config struct copied for immutability
func Setup(defaults config.Values, writers []io.Writer, debug bool) (*config.Instance, error) {
	if err := helpers.InitLogging(helpers.StateDir(), writers); err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(helpers.ConfigDir(), defaults)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	helpers.SetDebug(debug || cfg.DebugLogging())
	log.Debug().Str("version", config.AppVersion).Msg("st2205 tools starting")

	return cfg, nil
}

// DeviceOptions builds the open options from the config.
func DeviceOptions(cfg *config.Instance) st2205.Options {
	return st2205.Options{Identifier: cfg.Identifier()}
}

// probeFrame checks for the vendor signature without keeping the device.
func probeFrame(opts st2205.Options) func(string) error {
	return func(path string) error {
		f, err := st2205.OpenRaw(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		_, err = st2205.Identify(f, opts)
		return err
	}
}

// ResolveDevice returns the device path to open. An empty or "auto"
// argument falls back to the configured path, then to a search of the
// block devices.
func ResolveDevice(arg string, cfg *config.Instance) (string, error) {
	if arg != "" && arg != AutoDevice {
		return arg, nil
	}
	if p := cfg.DevicePath(); p != "" && p != AutoDevice {
		return p, nil
	}

	candidates, err := helpers.BlockDevices(helpers.DefaultFramePattern)
	if err != nil {
		return "", err
	}
	path, err := helpers.FindFrame(candidates, probeFrame(DeviceOptions(cfg)))
	if err != nil {
		return "", fmt.Errorf("failed to find frame: %w", err)
	}
	log.Info().Str("device", path).Msg("found photo frame")
	return path, nil
}
