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
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

// FirmwareState is a step of the firmware upload.
type FirmwareState int

const (
	FirmwareIdle FirmwareState = iota
	FirmwareValidating
	FirmwareWritingBlock0
	FirmwareVerifyingBlock0
	FirmwareWritingBlock1
	FirmwareVerifyingBlock1
	FirmwareCommitted
	FirmwareSafeFailure
	FirmwareUnsafeFailure
)

func (s FirmwareState) String() string {
	switch s {
	case FirmwareIdle:
		return "Idle"
	case FirmwareValidating:
		return "Validating"
	case FirmwareWritingBlock0:
		return "WritingBlock(0)"
	case FirmwareVerifyingBlock0:
		return "VerifyingBlock(0)"
	case FirmwareWritingBlock1:
		return "WritingBlock(1)"
	case FirmwareVerifyingBlock1:
		return "VerifyingBlock(1)"
	case FirmwareCommitted:
		return "Committed"
	case FirmwareSafeFailure:
		return "SafeFailure"
	case FirmwareUnsafeFailure:
		return "UnsafeFailure"
	default:
		return "Unknown"
	}
}

// IsValidFirmwareTransition reports whether the upload may move from one
// state to another. SafeFailure is only reachable before anything has been
// sent to the device.
func IsValidFirmwareTransition(from, to FirmwareState) bool {
	switch from {
	case FirmwareIdle:
		return to == FirmwareValidating
	case FirmwareValidating:
		return to == FirmwareWritingBlock0 || to == FirmwareSafeFailure
	case FirmwareWritingBlock0:
		return to == FirmwareVerifyingBlock0 || to == FirmwareUnsafeFailure
	case FirmwareVerifyingBlock0:
		return to == FirmwareWritingBlock1 || to == FirmwareUnsafeFailure
	case FirmwareWritingBlock1:
		return to == FirmwareVerifyingBlock1 || to == FirmwareUnsafeFailure
	case FirmwareVerifyingBlock1:
		return to == FirmwareCommitted || to == FirmwareUnsafeFailure
	case FirmwareCommitted, FirmwareSafeFailure, FirmwareUnsafeFailure:
		return false
	default:
		return false
	}
}

// FailureClass tells the operator whether a failed upload touched the
// device.
type FailureClass int

const (
	// SafeFailure means nothing was written; the frame may be unplugged.
	SafeFailure FailureClass = iota
	// UnsafeFailure means at least one staged block was written. Unplugging
	// makes the controller copy the staging area over the boot pages, which
	// can brick the frame.
	UnsafeFailure
)

func (c FailureClass) String() string {
	if c == UnsafeFailure {
		return "UNSAFE"
	}
	return "SAFE"
}

// FirmwareError is returned by UploadFirmware. Failed is the last state the
// upload reached before failing.
type FirmwareError struct {
	Err    error
	Failed FirmwareState
	Class  FailureClass
}

func (e *FirmwareError) Error() string {
	return fmt.Sprintf("firmware upload failed in %s (%s): %v", e.Failed, e.Class, e.Err)
}

func (e *FirmwareError) Unwrap() error {
	return e.Err
}

// Safety returns the failure class.
func (e *FirmwareError) Safety() FailureClass {
	return e.Class
}

type firmwareUpload struct {
	state FirmwareState
}

// advance moves to the next state, refusing transitions the table above
// does not allow.
func (u *firmwareUpload) advance(to FirmwareState) bool {
	if !IsValidFirmwareTransition(u.state, to) {
		log.Error().Stringer("from", u.state).Stringer("to", to).Msg("st2205: invalid firmware transition")
		return false
	}
	log.Debug().Stringer("from", u.state).Stringer("to", to).Msg("st2205: firmware state")
	u.state = to
	return true
}

func (u *firmwareUpload) fail(err error) *FirmwareError {
	failed := u.state
	class := SafeFailure
	target := FirmwareSafeFailure
	if failed != FirmwareValidating {
		class = UnsafeFailure
		target = FirmwareUnsafeFailure
	}
	u.advance(target)
	return &FirmwareError{Err: err, Failed: failed, Class: class}
}

var firmwareSteps = [2]struct {
	write, verify FirmwareState
}{
	{FirmwareWritingBlock0, FirmwareVerifyingBlock0},
	{FirmwareWritingBlock1, FirmwareVerifyingBlock1},
}

// UploadFirmware replaces the frame firmware with a two page image read
// from r. Blocks go to the staging area and are verified one at a time;
// block 0 is written and verified before block 1 starts. Any error is a
// *FirmwareError whose class says whether the device was touched.
func (d *Device) UploadFirmware(r io.Reader, size int64) error {
	u := &firmwareUpload{state: FirmwareIdle}
	u.advance(FirmwareValidating)

	if size != FirmwareSize {
		return u.fail(fmt.Errorf("%w: firmware image is %d bytes, expected %d",
			ErrSizeConstraint, size, FirmwareSize))
	}
	image := d.scratch[:FirmwareSize]
	if _, err := io.ReadFull(r, image); err != nil {
		return u.fail(fmt.Errorf("%w: read firmware image: %w", ErrIO, err))
	}

	log.Warn().Msg("st2205: uploading firmware, do not unplug the frame")

	for block, step := range firmwareSteps {
		data := image[block*PageSize : (block+1)*PageSize]
		local := Checksum32(data)

		u.advance(step.write)
		if err := d.ch.SendCommand(CmdFlashWrite, uint32(block)|firmwareFlag, PageSize, 0); err != nil {
			return u.fail(err)
		}
		if err := d.ch.WriteData(data); err != nil {
			return u.fail(fmt.Errorf("write firmware block %d: %w", block, err))
		}

		// the flagged address cannot be checksummed, the staged copy is
		// addressed by its plain page number instead
		u.advance(step.verify)
		remote, err := d.checksum(uint32(block+firmwareVerify), PageSize)
		if err != nil {
			return u.fail(fmt.Errorf("checksum firmware block %d: %w", block, err))
		}
		if remote != local {
			return u.fail(&ChecksumError{Page: block, Local: local, Device: remote})
		}
		d.report(block+1, len(firmwareSteps))
	}

	u.advance(FirmwareCommitted)
	log.Info().Msg("st2205: firmware upload verified")
	return nil
}
