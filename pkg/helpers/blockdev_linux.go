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

//go:build linux

package helpers

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// BlockDevices lists the paths matching pattern that are block devices.
func BlockDevices(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad device pattern %q: %w", pattern, err)
	}

	devs := make([]string, 0, len(matches))
	for _, m := range matches {
		var st unix.Stat_t
		if err := unix.Stat(m, &st); err != nil {
			log.Debug().Str("path", m).Err(err).Msg("cannot stat device")
			continue
		}
		if st.Mode&unix.S_IFMT != unix.S_IFBLK {
			continue
		}
		devs = append(devs, m)
	}
	return devs, nil
}
