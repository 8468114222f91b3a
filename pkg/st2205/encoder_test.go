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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func uniformFrame(w, h int, r, g, b byte) []byte {
	return bytes.Repeat([]byte{r, g, b}, w*h)
}

func TestSendPartial_Uniform2x2(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, testGeometry(4, 4, 24, ProtoMercury))
	pix := uniformFrame(4, 4, 10, 20, 30)

	require.NoError(t, dev.SendPartial(pix, 0, 0, 1, 1))
	require.Len(t, frame.Streams, 1)
	stream := frame.Streams[0]
	require.Len(t, stream, SectorSize)

	assert.Equal(t, []byte{0x10, 0, 0, 0, 1, 0, 1}, stream[:7])
	assert.Equal(t, make([]byte, runBlock-7), stream[7:runBlock])

	run := stream[runBlock : 2*runBlock]
	assert.Equal(t, byte(0xC0+11), run[0])
	assert.Equal(t, bytes.Repeat([]byte{10, 20, 30}, 4), run[1:13])
	assert.Equal(t, make([]byte, SectorSize-runBlock-13), stream[runBlock+13:])
}

func TestSendPartial_SingleRow(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, testGeometry(4, 4, 24, ProtoMercury))
	pix := uniformFrame(4, 4, 10, 20, 30)

	require.NoError(t, dev.SendPartial(pix, 0, 0, 1, 0))
	run := frame.Streams[0][runBlock:]
	assert.Equal(t, byte(0xC0+5), run[0])
	assert.Equal(t, []byte{10, 20, 30, 10, 20, 30}, run[1:7])
	assert.Zero(t, run[7])
}

func TestSendPartial_FullBlocks(t *testing.T) {
	t.Parallel()

	// 21 pixels at 24 bpp fill exactly one run
	dev, frame := openSim(t, testGeometry(21, 2, 24, ProtoMercury))
	pix := uniformFrame(21, 2, 1, 2, 3)

	require.NoError(t, dev.SendPartial(pix, 0, 0, 20, 1))
	stream := frame.Streams[0]
	assert.Equal(t, byte(0xC0+62), stream[runBlock])
	assert.Equal(t, byte(0xC0+62), stream[2*runBlock])
	assert.Zero(t, stream[3*runBlock], "no empty run after full blocks")
	assert.Len(t, stream, SectorSize)
}

func TestSetWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		want   []byte
		geom   Geometry
		xs, ys int
		xe, ye int
	}{
		{
			name: "mercury",
			geom: Geometry{Width: 320, Height: 240, BPP: 24, Proto: ProtoMercury},
			xs:   10, ys: 20, xe: 300, ye: 200,
			want: []byte{0x10, 0x00, 10, 0x01, 0x2C, 20, 200},
		},
		{
			name: "mercury with offsets",
			geom: Geometry{Width: 128, Height: 128, BPP: 16, Proto: ProtoMercury, OffX: 2, OffY: -1},
			xs:   0, ys: 1, xe: 127, ye: 127,
			want: []byte{0x10, 0, 2, 0, 129, 0, 126},
		},
		{
			name: "pcf8833",
			geom: Geometry{Width: 128, Height: 128, BPP: 12, Proto: ProtoPCF8833, OffX: 1, OffY: 2},
			xs:   4, ys: 5, xe: 7, ye: 9,
			want: []byte{0x01, 5, 8, 7, 11},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dev, _ := openSim(t, tt.geom)
			pix := make([]byte, tt.geom.Width*tt.geom.Height*3)

			stream, err := dev.EncodePartial(pix, tt.xs, tt.ys, tt.xe, tt.ye)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stream[:len(tt.want)])
			assert.Equal(t, make([]byte, runBlock-len(tt.want)), stream[len(tt.want):runBlock])
		})
	}
}

func TestEncodePartial_Unsupported(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, testGeometry(8, 8, 24, ProtoMercury))
	pix := make([]byte, 8*8*3)

	dev.geom.Proto = Protocol(3)
	_, err := dev.EncodePartial(pix, 0, 0, 7, 7)
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	dev.geom.Proto = ProtoMercury
	dev.geom.BPP = 8
	err = dev.SendPartial(pix, 0, 0, 7, 7)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Empty(t, frame.Streams)

	dev.geom.BPP = 24
	_, err = dev.EncodePartial(pix[:10], 0, 0, 7, 7)
	assert.ErrorIs(t, err, ErrSizeConstraint)
}

func TestEncode16bpp(t *testing.T) {
	t.Parallel()

	dev, _ := openSim(t, testGeometry(2, 1, 16, ProtoMercury))
	pix := []byte{0xFF, 0x00, 0x00, 0x12, 0x34, 0x56}

	stream, err := dev.EncodePartial(pix, 0, 0, 1, 0)
	require.NoError(t, err)
	_, data := decodeStream(t, stream)
	// 0x12,0x34,0x56 -> r=2 g=13 b=10
	assert.Equal(t, []byte{0xF8, 0x00, 0x11, 0xAA}, data)
}

func TestEncode12bpp_Snapping(t *testing.T) {
	t.Parallel()

	dev, _ := openSim(t, testGeometry(3, 1, 12, ProtoPCF8833))
	pix := []byte{0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0xF0, 0xE0, 0xD0}

	t.Run("odd start snaps left", func(t *testing.T) {
		stream, err := dev.EncodePartial(pix, 1, 0, 1, 0)
		require.NoError(t, err)
		window, data := decodeStream(t, stream)
		assert.Equal(t, []byte{0x01, 0, 1, 0, 0}, window[:5])
		assert.Equal(t, []byte{0x12, 0x34, 0x56}, data)
	})

	t.Run("last column pairs with black", func(t *testing.T) {
		stream, err := dev.EncodePartial(pix, 2, 0, 2, 0)
		require.NoError(t, err)
		window, data := decodeStream(t, stream)
		assert.Equal(t, []byte{0x01, 2, 3, 0, 0}, window[:5])
		assert.Equal(t, []byte{0xFE, 0xD0, 0x00}, data)
	})
}

// expectedPayload encodes a region pixel by pixel, independently of the
// packer.
func expectedPayload(pix []byte, w, h, bpp, xs, ys, xe, ye int) []byte {
	at := func(x, y int) (byte, byte, byte) {
		if x >= w || y >= h {
			return 0, 0, 0
		}
		i := (y*w + x) * 3
		return pix[i], pix[i+1], pix[i+2]
	}

	var out []byte
	for y := ys; y <= ye; y++ {
		switch bpp {
		case 24:
			for x := xs; x <= xe; x++ {
				r, g, b := at(x, y)
				out = append(out, r, g, b)
			}
		case 16:
			for x := xs; x <= xe; x++ {
				r, g, b := at(x, y)
				v := int(r>>3)<<11 | int(g>>2)<<5 | int(b>>3)
				out = append(out, byte(v>>8), byte(v))
			}
		case 12:
			for x := xs - xs%2; x <= xe; x += 2 {
				r1, g1, b1 := at(x, y)
				r2, g2, b2 := at(x+1, y)
				out = append(out, r1&0xF0|g1>>4, b1&0xF0|r2>>4, g2&0xF0|b2>>4)
			}
		}
	}
	return out
}

func TestEncode_RoundTrip(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.IntRange(1, 24).Draw(rt, "w")
		h := rapid.IntRange(1, 12).Draw(rt, "h")
		bpp := rapid.SampledFrom([]int{12, 16, 24}).Draw(rt, "bpp")
		proto := rapid.SampledFrom([]Protocol{ProtoPCF8833, ProtoMercury}).Draw(rt, "proto")
		pix := rapid.SliceOfN(rapid.Byte(), w*h*3, w*h*3).Draw(rt, "pix")

		xs := rapid.IntRange(0, w-1).Draw(rt, "xs")
		xe := rapid.IntRange(xs, w-1).Draw(rt, "xe")
		ys := rapid.IntRange(0, h-1).Draw(rt, "ys")
		ye := rapid.IntRange(ys, h-1).Draw(rt, "ye")

		dev, frame := openSim(rt, testGeometry(w, h, bpp, proto))
		require.NoError(rt, dev.SendPartial(pix, xs, ys, xe, ye))
		require.Len(rt, frame.Streams, 1)

		_, data := decodeStream(rt, frame.Streams[0])
		want := expectedPayload(pix, w, h, bpp, xs, ys, xe, ye)
		if !bytes.Equal(want, data) {
			rt.Fatalf("payload mismatch for %dx%d %dbpp region (%d,%d)-(%d,%d)",
				w, h, bpp, xs, ys, xe, ye)
		}
	})
}

func TestEncodePartial_OutsidePanel(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, DefaultGeometry)
	pix := make([]byte, DefaultGeometry.Width*DefaultGeometry.Height*3)

	tests := []struct {
		name           string
		xs, ys, xe, ye int
	}{
		{name: "past bottom edge", xe: 319, ye: 479},
		{name: "past right edge", xe: 320, ye: 239},
		{name: "negative start", xs: -1, ys: 0, xe: 10, ye: 10},
		{name: "negative row", xs: 0, ys: -5, xe: 10, ye: 10},
	}
	for _, tt := range tests {
		_, err := dev.EncodePartial(pix, tt.xs, tt.ys, tt.xe, tt.ye)
		require.ErrorIs(t, err, ErrSizeConstraint, tt.name)
		require.ErrorIs(t, dev.SendPartial(pix, tt.xs, tt.ys, tt.xe, tt.ye), ErrSizeConstraint, tt.name)
	}
	assert.Empty(t, frame.Streams)

	// the far corner is still inside
	require.NoError(t, dev.SendPartial(pix, 319, 239, 319, 239))
	assert.Len(t, frame.Streams, 1)
}

func TestEncodePartial_InvertedWindowOnly(t *testing.T) {
	t.Parallel()

	dev, _ := openSim(t, testGeometry(4, 4, 24, ProtoMercury))
	stream, err := dev.EncodePartial(make([]byte, 4*4*3), 3, 0, 2, 0)
	require.NoError(t, err)
	window, data := decodeStream(t, stream)
	assert.Equal(t, byte(StreamSetWindow), window[0])
	assert.Empty(t, data)
}

func TestSendRGBAPartial_OutsidePanel(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, testGeometry(2, 2, 24, ProtoMercury))
	err := dev.SendRGBAPartial(make([]byte, 2*2*4), BoundingBox{XS: 0, YS: 0, XE: 5, YE: 1})
	require.ErrorIs(t, err, ErrSizeConstraint)
	assert.Empty(t, frame.Streams)
}

func TestSendFull(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, testGeometry(5, 3, 24, ProtoMercury))
	pix := uniformFrame(5, 3, 1, 1, 1)

	require.NoError(t, dev.SendFull(pix))
	window, data := decodeStream(t, frame.Streams[0])
	assert.Equal(t, []byte{0x10, 0, 0, 0, 4, 0, 2}, window[:7])
	assert.Equal(t, pix, data)
}

func TestDisplayControl(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, DefaultGeometry)
	require.NoError(t, dev.Backlight(true))
	require.NoError(t, dev.Backlight(false))
	require.NoError(t, dev.LCDSleep(true))
	require.NoError(t, dev.LCDSleep(false))

	require.Len(t, frame.Streams, 4)
	for i, cmd := range []byte{0x11, 0x12, 0x14, 0x13} {
		stream := frame.Streams[i]
		require.Len(t, stream, SectorSize)
		assert.Equal(t, cmd, stream[0])
		assert.Equal(t, make([]byte, SectorSize-1), stream[1:])
	}
	assert.Empty(t, frame.Commands)
}
