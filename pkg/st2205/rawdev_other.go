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

//go:build !linux

package st2205

import (
	"fmt"
	"os"
)

// OpenRaw opens the frame's block device read/write.
func OpenRaw(path string) (*os.File, error) {
	//nolint:gosec // path is the operator supplied block device
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	return f, nil
}

// AllocAligned returns a buffer of size bytes. Only Linux opens the device
// with O_DIRECT, so no alignment is needed here.
func AllocAligned(size int) ([]byte, func() error, error) {
	return make([]byte, size), func() error { return nil }, nil
}
