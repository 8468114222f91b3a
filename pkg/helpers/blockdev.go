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

package helpers

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// DefaultFramePattern matches the SCSI disks a USB photo frame shows up as.
const DefaultFramePattern = "/dev/sd[a-z]"

// ErrNoFrame is returned when no candidate device answered the probe.
var ErrNoFrame = errors.New("no photo frame found")

// FindFrame returns the first candidate for which probe succeeds.
func FindFrame(candidates []string, probe func(path string) error) (string, error) {
	for _, path := range candidates {
		if err := probe(path); err != nil {
			log.Debug().Err(err).Str("path", path).Msg("not a photo frame")
			continue
		}
		log.Debug().Str("path", path).Msg("found photo frame")
		return path, nil
	}
	return "", fmt.Errorf("%w: tried %d devices", ErrNoFrame, len(candidates))
}
