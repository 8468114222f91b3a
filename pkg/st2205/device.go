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

	"github.com/rs/zerolog/log"
)

// Options controls how a frame is opened.
type Options struct {
	// Identifier establishes the panel geometry. Nil means
	// FixedGeometry{DefaultGeometry}.
	Identifier Identifier
}

// Device is an opened, identified photo frame. It is owned by one caller
// for its whole lifetime and must not be used concurrently.
type Device struct {
	ch       *Channel
	scratch  []byte
	prev     []byte
	rgb      []byte
	frees    []func() error
	progress ProgressFunc
	path     string
	geom     Geometry
}

// ProgressFunc is called after each unit of a multi-step transfer.
type ProgressFunc func(done, total int)

// Open opens the block device at path, checks the vendor signature and
// identifies the panel.
func Open(path string, opts Options) (*Device, error) {
	f, err := OpenRaw(path)
	if err != nil {
		return nil, err
	}

	dev, err := NewDevice(f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	dev.path = path

	log.Info().
		Str("device", path).
		Stringer("geometry", dev.geom).
		Msg("st2205: detected photo frame")

	return dev, nil
}

// NewDevice identifies a frame on an already opened raw device. The device
// is not closed on error.
func NewDevice(rw RawDevice, opts Options) (*Device, error) {
	ident := opts.Identifier
	if ident == nil {
		ident = FixedGeometry{Geometry: DefaultGeometry}
	}

	dev := &Device{}

	cmd, err := dev.alloc(SectorSize)
	if err != nil {
		return nil, err
	}
	dev.ch = NewChannel(rw, cmd)

	// two pages for firmware images plus one sector for checksum replies
	if dev.scratch, err = dev.alloc(FirmwareSize + SectorSize); err != nil {
		_ = dev.release()
		return nil, err
	}

	if err := checkSignature(dev.ch, dev.scratch); err != nil {
		_ = dev.release()
		return nil, err
	}

	geom, err := ident.Identify(dev)
	if err != nil {
		_ = dev.release()
		return nil, err
	}
	if err := geom.Validate(); err != nil {
		_ = dev.release()
		return nil, err
	}
	dev.geom = geom

	// lets patched firmware know a host library is attached; stock
	// firmware ignores the frame
	if err := dev.ch.HackFrame(hackTagCode, nil); err != nil {
		_ = dev.release()
		return nil, err
	}

	if need := streamCapacity(geom); need > len(dev.scratch)-SectorSize {
		if dev.scratch, err = dev.alloc(need + SectorSize); err != nil {
			_ = dev.release()
			return nil, err
		}
	}

	return dev, nil
}

// Identify runs the signature check and identifier on rw and returns the
// geometry. rw is left open.
func Identify(rw RawDevice, opts Options) (Geometry, error) {
	dev, err := NewDevice(rw, opts)
	if err != nil {
		return Geometry{}, err
	}
	geom := dev.geom
	if err := dev.release(); err != nil {
		return Geometry{}, fmt.Errorf("%w: release buffers: %w", ErrIO, err)
	}
	return geom, nil
}

func (d *Device) alloc(size int) ([]byte, error) {
	// round up to a whole number of pages
	size = (size + 0xFFF) &^ 0xFFF
	buf, free, err := AllocAligned(size)
	if err != nil {
		return nil, err
	}
	d.frees = append(d.frees, free)
	return buf, nil
}

func (d *Device) release() error {
	var errs []error
	for _, free := range d.frees {
		if err := free(); err != nil {
			errs = append(errs, err)
		}
	}
	d.frees = nil
	d.scratch = nil
	return errors.Join(errs...)
}

// Close closes the raw device and releases the transfer buffers.
func (d *Device) Close() error {
	err := d.ch.Close()
	if relErr := d.release(); relErr != nil && err == nil {
		err = fmt.Errorf("%w: release buffers: %w", ErrIO, relErr)
	}
	d.prev = nil
	d.rgb = nil
	return err
}

// SetProgress installs a callback for page and chunk transfers.
func (d *Device) SetProgress(fn ProgressFunc) {
	d.progress = fn
}

func (d *Device) report(done, total int) {
	if d.progress != nil {
		d.progress(done, total)
	}
}

// sector is the reply buffer for commands that answer with one sector. It
// sits past the firmware sized area of the scratch buffer.
func (d *Device) sector() []byte {
	return d.scratch[len(d.scratch)-SectorSize:]
}

// Geometry returns the panel description established at open time.
func (d *Device) Geometry() Geometry {
	return d.geom
}

// Path returns the block device path, empty for devices created with
// NewDevice.
func (d *Device) Path() string {
	return d.path
}

// Channel exposes the raw command channel for maintenance tooling.
func (d *Device) Channel() *Channel {
	return d.ch
}

func (d *Device) String() string {
	return fmt.Sprintf("st2205.Device{%s}", d.geom)
}

// streamCapacity is the largest pixel stream a full frame can produce: one
// window block, the payload split in 63 byte runs, and the sector padding.
func streamCapacity(g Geometry) int {
	payload := (g.Width + 1) * g.Height * 3
	blocks := payload/runMax + 1
	return runBlock + blocks*runBlock + SectorSize
}
