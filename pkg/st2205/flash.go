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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

// ReadPage reads one flash page into buf, which must be PageSize bytes and
// aligned for the raw device.
func (d *Device) ReadPage(page int, buf []byte) error {
	if len(buf) != PageSize {
		return fmt.Errorf("%w: page buffer of %d bytes", ErrSizeConstraint, len(buf))
	}
	if err := d.readFlash(PageAddress(page), 0, buf); err != nil {
		return fmt.Errorf("read page 0x%04x: %w", page, err)
	}
	return nil
}

func (d *Device) readFlash(arg1, arg2 uint32, buf []byte) error {
	if err := d.ch.SendCommand(CmdFlashRead, arg1, arg2, 0); err != nil {
		return err
	}
	return d.ch.ReadData(buf)
}

// WritePage programs one page without verifying it.
func (d *Device) WritePage(page int, data []byte) error {
	if len(data) != PageSize {
		return fmt.Errorf("%w: page data of %d bytes", ErrSizeConstraint, len(data))
	}
	buf := d.scratch[:PageSize]
	copy(buf, data)

	if err := d.ch.SendCommand(CmdFlashWrite, PageAddress(page), PageSize, 0); err != nil {
		return err
	}
	if err := d.ch.WriteData(buf); err != nil {
		return fmt.Errorf("write page 0x%04x: %w", page, err)
	}
	return nil
}

// ChecksumPage asks the firmware for the byte sum of a page.
func (d *Device) ChecksumPage(page int) (uint32, error) {
	return d.checksum(ChecksumAddress(page), 0)
}

func (d *Device) checksum(arg1, arg2 uint32) (uint32, error) {
	if err := d.ch.SendCommand(CmdFlashChecksum, arg1, arg2, 0); err != nil {
		return 0, err
	}
	reply := d.sector()
	if err := d.ch.ReadData(reply); err != nil {
		return 0, fmt.Errorf("read checksum: %w", err)
	}
	return binary.BigEndian.Uint32(reply[:4]), nil
}

// WritePageWithVerify programs a page and compares the device checksum
// with the local one. A mismatch is returned as a *ChecksumError; the page
// is not rewritten.
func (d *Device) WritePageWithVerify(page int, data []byte) error {
	local := Checksum32(data)

	if err := d.WritePage(page, data); err != nil {
		return err
	}

	remote, err := d.ChecksumPage(page)
	if err != nil {
		return fmt.Errorf("checksum page 0x%04x: %w", page, err)
	}
	if remote != local {
		return &ChecksumError{Page: page, Local: local, Device: remote}
	}
	return nil
}

// DumpPages copies n pages starting at start to w.
func (d *Device) DumpPages(w io.Writer, start, n int) error {
	buf := d.scratch[:PageSize]
	for i := range n {
		page := start + i
		if err := d.ReadPage(page, buf); err != nil {
			return err
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("%w: write dump of page 0x%04x: %w", ErrIO, page, err)
		}
		d.report(i+1, n)
	}
	return nil
}

// DumpFirmware copies the two firmware pages to w.
func (d *Device) DumpFirmware(w io.Writer) error {
	return d.DumpPages(w, 0, 2)
}

// ReadRAM returns the controller's working RAM. Reading the data window a
// second time after a page read wraps around into RAM.
func (d *Device) ReadRAM() ([]byte, error) {
	buf := d.scratch[:PageSize]
	if err := d.ReadPage(0, buf); err != nil {
		return nil, err
	}
	if err := d.ch.ReadData(buf); err != nil {
		return nil, fmt.Errorf("read wrapped page: %w", err)
	}
	ram := make([]byte, RAMSize)
	copy(ram, buf)
	return ram, nil
}

// DumpRAM writes the controller RAM to w.
func (d *Device) DumpRAM(w io.Writer) error {
	ram, err := d.ReadRAM()
	if err != nil {
		return err
	}
	if _, err := w.Write(ram); err != nil {
		return fmt.Errorf("%w: write ram dump: %w", ErrIO, err)
	}
	return nil
}

// CheckUploadSize validates the size of a page upload source.
func CheckUploadSize(size int64) (int, error) {
	switch {
	case size <= 0:
		return 0, fmt.Errorf("%w: file is empty", ErrSizeConstraint)
	case size%PageSize != 0:
		return 0, fmt.Errorf("%w: %d bytes is not a multiple of the page size", ErrSizeConstraint, size)
	case size/PageSize > MaxPages:
		return 0, fmt.Errorf("%w: %d pages exceeds the limit of %d", ErrSizeConstraint, size/PageSize, MaxPages)
	}
	return int(size / PageSize), nil
}

// UploadFile programs size bytes from r into consecutive pages starting at
// startPage, verifying each one. The first failure aborts the upload.
func (d *Device) UploadFile(r io.Reader, size int64, startPage int) error {
	pages, err := CheckUploadSize(size)
	if err != nil {
		return err
	}

	log.Info().Int("pages", pages).Int("start", startPage).Msg("st2205: writing pages")

	buf := make([]byte, PageSize)
	for i := range pages {
		page := startPage + i
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("%w: read source for page 0x%04x: %w", ErrIO, page, err)
		}
		if err := d.WritePageWithVerify(page, buf); err != nil {
			return err
		}
		d.report(i+1, pages)
	}
	return nil
}
