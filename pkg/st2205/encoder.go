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

	"github.com/rs/zerolog/log"
)

// runPacker builds the pixel stream. Data is framed in 64 byte blocks; byte
// 0 of each block is the run header 0xC0+(n-1) for the n literal bytes that
// follow it.
type runPacker struct {
	buf []byte
	p   int
}

// add appends one literal byte, opening a block if needed and closing it
// when it is full.
func (r *runPacker) add(b byte) {
	if r.p%runBlock == 0 {
		r.p++
	}
	r.buf[r.p] = b
	r.p++
	if r.p%runBlock == 0 {
		r.buf[r.p-runBlock] = runHeader + runMax - 1
	}
}

// closeRun writes the header of the open block, if any, and moves to the
// next block boundary.
func (r *runPacker) closeRun() {
	offset := r.p % runBlock
	if offset == 0 {
		return
	}
	start := r.p - offset
	r.buf[start] = byte(runHeader + offset - 2)
	clear(r.buf[r.p : start+runBlock])
	r.p = start + runBlock
}

// block reserves a whole 64 byte block for a stream command.
func (r *runPacker) block() []byte {
	r.closeRun()
	b := r.buf[r.p : r.p+runBlock]
	clear(b)
	r.p += runBlock
	return b
}

// pad zero fills the stream up to the next sector boundary and returns it.
func (r *runPacker) pad() []byte {
	r.closeRun()
	end := (r.p + SectorSize - 1) / SectorSize * SectorSize
	if end == 0 {
		end = SectorSize
	}
	clear(r.buf[r.p:end])
	return r.buf[:end]
}

// setWindow emits the window command for the inclusive rectangle.
func (d *Device) setWindow(r *runPacker, xs, ys, xe, ye int) error {
	xsOff := xs + d.geom.OffX
	xeOff := xe + d.geom.OffX
	ysOff := ys + d.geom.OffY
	yeOff := ye + d.geom.OffY

	switch d.geom.Proto {
	case ProtoPCF8833:
		b := r.block()
		b[0] = StreamSetWindowPCF8833
		b[1] = byte(xsOff)
		b[2] = byte(xeOff)
		b[3] = byte(ysOff)
		b[4] = byte(yeOff)
	case ProtoMercury:
		b := r.block()
		b[0] = StreamSetWindow
		b[1] = byte(xsOff >> 8)
		b[2] = byte(xsOff)
		b[3] = byte(xeOff >> 8)
		b[4] = byte(xeOff)
		b[5] = byte(ysOff)
		b[6] = byte(yeOff)
	default:
		return fmt.Errorf("%w: protocol 0x%x", ErrUnsupportedFormat, int(d.geom.Proto))
	}
	return nil
}

// EncodePartial builds the stream for the inclusive rectangle (xs,ys)-(xe,ye)
// of pix, a width*height*3 RGB buffer. The returned slice aliases the
// device scratch buffer and is only valid until the next transfer.
func (d *Device) EncodePartial(pix []byte, xs, ys, xe, ye int) ([]byte, error) {
	if want := d.geom.Width * d.geom.Height * 3; len(pix) < want {
		return nil, fmt.Errorf("%w: pixel buffer of %d bytes, want %d", ErrSizeConstraint, len(pix), want)
	}

	// an inverted rectangle encodes the window alone
	if xs <= xe && ys <= ye &&
		(xs < 0 || ys < 0 || xe >= d.geom.Width || ye >= d.geom.Height) {
		return nil, fmt.Errorf("%w: window (%d,%d)-(%d,%d) outside %dx%d panel",
			ErrSizeConstraint, xs, ys, xe, ye, d.geom.Width, d.geom.Height)
	}

	bpp := d.geom.BPP
	if bpp == 12 {
		xs -= xs & 1
		xe += (xe - xs + 1) & 1
	}

	r := &runPacker{buf: d.scratch[:len(d.scratch)-SectorSize]}
	if err := d.setWindow(r, xs, ys, xe, ye); err != nil {
		return nil, err
	}

	px := pixelSource{pix: pix, w: d.geom.Width, h: d.geom.Height}
	for y := ys; y <= ye; y++ {
		for x := xs; x <= xe; x++ {
			switch bpp {
			case 24:
				c := px.at(x, y)
				r.add(c.r)
				r.add(c.g)
				r.add(c.b)
			case 16:
				v := px.at(x, y).rgb565()
				r.add(byte(v >> 8))
				r.add(byte(v))
			case 12:
				v := px.at(x, y).rgb444()<<12 | px.at(x+1, y).rgb444()
				r.add(byte(v >> 16))
				r.add(byte(v >> 8))
				r.add(byte(v))
				x++
			default:
				return nil, fmt.Errorf("%w: %d bpp", ErrUnsupportedFormat, bpp)
			}
		}
	}

	return r.pad(), nil
}

// SendPartial encodes and sends the inclusive rectangle (xs,ys)-(xe,ye).
func (d *Device) SendPartial(pix []byte, xs, ys, xe, ye int) error {
	stream, err := d.EncodePartial(pix, xs, ys, xe, ye)
	if err != nil {
		return err
	}

	log.Debug().
		Int("xs", xs).Int("ys", ys).Int("xe", xe).Int("ye", ye).
		Int("bytes", len(stream)).
		Msg("st2205: sending window")

	return d.ch.WriteData(stream)
}

// SendFull sends the whole frame.
func (d *Device) SendFull(pix []byte) error {
	return d.SendPartial(pix, 0, 0, d.geom.Width-1, d.geom.Height-1)
}

// sendStreamCommand sends a single byte stream command padded to a sector.
func (d *Device) sendStreamCommand(cmd byte) error {
	r := &runPacker{buf: d.scratch[:len(d.scratch)-SectorSize]}
	b := r.block()
	b[0] = cmd
	return d.ch.WriteData(r.pad())
}

// Backlight switches the panel backlight.
func (d *Device) Backlight(on bool) error {
	if on {
		return d.sendStreamCommand(StreamBacklightOn)
	}
	return d.sendStreamCommand(StreamBacklightOff)
}

// LCDSleep puts the panel into deep sleep, losing its contents, or wakes it.
func (d *Device) LCDSleep(sleep bool) error {
	if sleep {
		return d.sendStreamCommand(StreamLCDSleep)
	}
	return d.sendStreamCommand(StreamLCDWake)
}
