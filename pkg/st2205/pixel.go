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

type rgb struct {
	r, g, b byte
}

// rgb565 packs the colour for 16 bpp panels.
func (c rgb) rgb565() uint16 {
	return uint16(c.r>>3)<<11 | uint16(c.g>>2)<<5 | uint16(c.b>>3)
}

// rgb444 packs the colour into the low 12 bits.
func (c rgb) rgb444() uint32 {
	return uint32(c.r>>4)<<8 | uint32(c.g>>4)<<4 | uint32(c.b>>4)
}

// pixelSource reads a packed RGB frame. Coordinates outside the frame read
// as black; 12 bpp pairs may reach one column past the right edge.
type pixelSource struct {
	pix  []byte
	w, h int
}

func (p pixelSource) at(x, y int) rgb {
	if x < 0 || y < 0 || x >= p.w || y >= p.h {
		return rgb{}
	}
	i := (y*p.w + x) * 3
	return rgb{p.pix[i], p.pix[i+1], p.pix[i+2]}
}
