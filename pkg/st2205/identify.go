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
	"bytes"
	"fmt"
)

// Geometry describes the panel behind the controller.
type Geometry struct {
	Width  int
	Height int
	BPP    int
	Proto  Protocol
	OffX   int
	OffY   int
}

// DefaultGeometry is used when the firmware carries no parameter block.
var DefaultGeometry = Geometry{
	Width:  320,
	Height: 240,
	BPP:    24,
	Proto:  ProtoMercury,
}

// Validate checks that g can be driven by the encoder.
func (g Geometry) Validate() error {
	if !g.Proto.Valid() {
		return fmt.Errorf("%w: unrecognized protocol 0x%x", ErrProtocolMismatch, int(g.Proto))
	}
	switch g.BPP {
	case 12, 16, 24:
	default:
		return fmt.Errorf("%w: %d bpp", ErrUnsupportedFormat, g.BPP)
	}
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: %dx%d panel", ErrProtocolMismatch, g.Width, g.Height)
	}
	return nil
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d %dbpp %s", g.Width, g.Height, g.BPP, g.Proto)
}

// Identifier establishes the geometry of an opened frame. Exactly one
// identifier runs per session.
type Identifier interface {
	Identify(dev *Device) (Geometry, error)
}

// FixedGeometry identifies every frame as the same hardcoded panel.
type FixedGeometry struct {
	Geometry Geometry
}

func (f FixedGeometry) Identify(*Device) (Geometry, error) {
	return f.Geometry, nil
}

// ParameterBlockGeometry reads the panel description that hacked firmware
// embeds in its first two pages.
type ParameterBlockGeometry struct{}

func (ParameterBlockGeometry) Identify(dev *Device) (Geometry, error) {
	fw := dev.scratch[:FirmwareSize]
	for page := range 2 {
		// the firmware answers this read only with the page length set
		err := dev.readFlash(PageAddress(page), PageSize, fw[page*PageSize:(page+1)*PageSize])
		if err != nil {
			return Geometry{}, fmt.Errorf("dump firmware page %d: %w", page, err)
		}
	}

	pb, err := FindParameterBlock(fw)
	if err != nil {
		return Geometry{}, err
	}
	return pb.Geometry(), nil
}

var parmMarker = []byte("H4CK")

const parmBlockLen = 11

// ParameterBlock is the panel description patched into the firmware image.
// On the wire it is the marker followed by one byte for each field.
type ParameterBlock struct {
	Version uint8
	Width   uint8
	Height  uint8
	BPP     uint8
	Proto   Protocol
	OffX    int8
	OffY    int8
}

// FindParameterBlock scans a firmware dump for the H4CK marker and parses
// the block that starts at it. Only version 1 blocks are understood.
func FindParameterBlock(fw []byte) (ParameterBlock, error) {
	idx := bytes.Index(fw, parmMarker)
	if idx < 0 || idx+parmBlockLen > len(fw) {
		return ParameterBlock{}, fmt.Errorf("%w: no parameter block in firmware", ErrProtocolMismatch)
	}

	b := fw[idx+len(parmMarker) : idx+parmBlockLen]
	pb := ParameterBlock{
		Version: b[0],
		Width:   b[1],
		Height:  b[2],
		BPP:     b[3],
		Proto:   Protocol(b[4]),
		OffX:    int8(b[5]),
		OffY:    int8(b[6]),
	}
	if pb.Version != 1 {
		return ParameterBlock{}, fmt.Errorf("%w: parameter block version %d", ErrProtocolMismatch, pb.Version)
	}
	return pb, nil
}

// Geometry converts the block to a panel description.
func (pb ParameterBlock) Geometry() Geometry {
	return Geometry{
		Width:  int(pb.Width),
		Height: int(pb.Height),
		BPP:    int(pb.BPP),
		Proto:  pb.Proto,
		OffX:   int(pb.OffX),
		OffY:   int(pb.OffY),
	}
}

// checkSignature reads the first sector and compares it with the vendor
// string, including its terminating NUL.
func checkSignature(ch *Channel, buf []byte) error {
	if err := ch.ReadSector(buf); err != nil {
		return fmt.Errorf("%w: %w", ErrProtocolMismatch, err)
	}
	if !bytes.Equal(buf[:signatureLen], []byte(Signature)) {
		return fmt.Errorf("%w: no photo frame signature", ErrProtocolMismatch)
	}
	return nil
}
