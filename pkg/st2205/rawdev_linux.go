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

package st2205

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// OpenRaw opens the frame's block device for unbuffered access. O_DIRECT
// bypasses the page cache, which would otherwise swallow repeated reads of
// the data window.
func OpenRaw(path string) (*os.File, error) {
	//nolint:gosec // path is the operator supplied block device
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_DIRECT|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	return f, nil
}

// AllocAligned returns a page aligned buffer of size bytes, as required by
// O_DIRECT transfers, and the function that frees it.
func AllocAligned(size int) ([]byte, func() error, error) {
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: mmap %d bytes: %w", ErrIO, size, err)
	}
	return buf, func() error { return unix.Munmap(buf) }, nil
}
