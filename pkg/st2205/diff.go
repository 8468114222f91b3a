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
	"image"
	"image/draw"

	"github.com/rs/zerolog/log"
)

// BoundingBox is an inclusive pixel rectangle.
type BoundingBox struct {
	XS, YS, XE, YE int
}

// Empty reports whether the box covers no pixel.
func (b BoundingBox) Empty() bool {
	return b.XS > b.XE
}

// Contains reports whether (x, y) lies inside the box.
func (b BoundingBox) Contains(x, y int) bool {
	return !b.Empty() && x >= b.XS && x <= b.XE && y >= b.YS && y <= b.YE
}

// FindBoundingBox returns the smallest box holding every pixel that differs
// between two packed RGB frames of w*h pixels.
func FindBoundingBox(prev, curr []byte, w, h int) BoundingBox {
	box := BoundingBox{XS: w, YS: h, XE: -1, YE: -1}
	stride := w * 3
	for y := range h {
		row := y * stride
		if bytes.Equal(prev[row:row+stride], curr[row:row+stride]) {
			continue
		}
		for x := range w {
			i := row + x*3
			if prev[i] == curr[i] && prev[i+1] == curr[i+1] && prev[i+2] == curr[i+2] {
				continue
			}
			box.XS = min(box.XS, x)
			box.XE = max(box.XE, x)
			box.YS = min(box.YS, y)
			box.YE = max(box.YE, y)
		}
	}
	return box
}

func (d *Device) frameSize() int {
	return d.geom.Width * d.geom.Height * 3
}

// SendFrame sends a packed RGB frame, limited to the region that changed
// since the last frame sent this way. The first frame is sent whole. The
// cache only advances when a send succeeds.
func (d *Device) SendFrame(pix []byte) error {
	size := d.frameSize()
	if len(pix) < size {
		return fmt.Errorf("%w: pixel buffer of %d bytes, want %d", ErrSizeConstraint, len(pix), size)
	}

	if d.prev == nil {
		if err := d.SendFull(pix); err != nil {
			return err
		}
		d.prev = make([]byte, size)
		copy(d.prev, pix)
		return nil
	}

	box := FindBoundingBox(d.prev, pix, d.geom.Width, d.geom.Height)
	if box.Empty() {
		log.Debug().Msg("st2205: frame unchanged")
		return nil
	}
	log.Debug().
		Int("xs", box.XS).Int("ys", box.YS).Int("xe", box.XE).Int("ye", box.YE).
		Msg("st2205: frame changed")

	if err := d.SendPartial(pix, box.XS, box.YS, box.XE, box.YE); err != nil {
		return err
	}
	copy(d.prev, pix[:size])
	return nil
}

// ResetCache forgets the last frame so the next SendFrame is sent whole.
func (d *Device) ResetCache() {
	d.prev = nil
}

// convertBuffer returns the RGB buffer used for converted input.
func (d *Device) convertBuffer() []byte {
	if d.rgb == nil {
		d.rgb = make([]byte, d.frameSize())
	}
	return d.rgb
}

// fromBGRA converts 32 bit pixels stored blue first into the RGB buffer.
func (d *Device) fromBGRA(pix []byte) ([]byte, error) {
	n := d.geom.Width * d.geom.Height
	if len(pix) < n*4 {
		return nil, fmt.Errorf("%w: rgba buffer of %d bytes, want %d", ErrSizeConstraint, len(pix), n*4)
	}
	out := d.convertBuffer()
	for i := range n {
		out[i*3] = pix[i*4+2]
		out[i*3+1] = pix[i*4+1]
		out[i*3+2] = pix[i*4]
	}
	return out, nil
}

// SendRGBA sends a frame of 32 bit pixels in B, G, R, X byte order through
// the diff engine.
func (d *Device) SendRGBA(pix []byte) error {
	rgb, err := d.fromBGRA(pix)
	if err != nil {
		return err
	}
	return d.SendFrame(rgb)
}

// SendRGBAPartial sends one region of a 32 bit frame, bypassing the cache.
func (d *Device) SendRGBAPartial(pix []byte, box BoundingBox) error {
	if box.Empty() {
		return nil
	}
	rgb, err := d.fromBGRA(pix)
	if err != nil {
		return err
	}
	return d.SendPartial(rgb, box.XS, box.YS, box.XE, box.YE)
}

// SendImage draws img at the origin of the panel and sends it through the
// diff engine. Parts of the panel img does not cover are black.
func (d *Device) SendImage(img image.Image) error {
	w, h := d.geom.Width, d.geom.Height
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, draw.Src)

	out := d.convertBuffer()
	for y := range h {
		for x := range w {
			src := canvas.PixOffset(x, y)
			dst := (y*w + x) * 3
			copy(out[dst:dst+3], canvas.Pix[src:src+3])
		}
	}
	return d.SendFrame(out)
}
