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

package st2205

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps one of these, so
// callers can branch with errors.Is.
var (
	ErrIO                = errors.New("device i/o failed")
	ErrProtocolMismatch  = errors.New("protocol mismatch")
	ErrSizeConstraint    = errors.New("size constraint violated")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
	ErrVerification      = errors.New("verification failed")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// ChecksumError reports a page whose device checksum disagrees with the data
// that was sent.
type ChecksumError struct {
	Page   int
	Local  uint32
	Device uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s: page %d: buffer=%08x device=%08x",
		ErrChecksumMismatch, e.Page, e.Local, e.Device)
}

func (*ChecksumError) Unwrap() error {
	return ErrChecksumMismatch
}

func ioErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIO, fmt.Sprintf(format, args...))
}

// shortIO wraps an underlying error (or a short count) as ErrIO.
func shortIO(op string, want, got int, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
	}
	return ioErrorf("%s: transferred %d of %d bytes", op, got, want)
}
