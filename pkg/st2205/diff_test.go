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
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFindBoundingBox_Identical(t *testing.T) {
	t.Parallel()

	prev := uniformFrame(8, 6, 1, 2, 3)
	box := FindBoundingBox(prev, bytes.Clone(prev), 8, 6)
	assert.True(t, box.Empty())
	assert.False(t, box.Contains(0, 0))
}

func TestFindBoundingBox_Properties(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.IntRange(1, 32).Draw(t, "w")
		h := rapid.IntRange(1, 32).Draw(t, "h")
		prev := rapid.SliceOfN(rapid.Byte(), w*h*3, w*h*3).Draw(t, "prev")
		curr := bytes.Clone(prev)

		changes := rapid.IntRange(0, 8).Draw(t, "changes")
		changed := make(map[[2]int]bool)
		for range changes {
			x := rapid.IntRange(0, w-1).Draw(t, "x")
			y := rapid.IntRange(0, h-1).Draw(t, "y")
			c := rapid.IntRange(0, 2).Draw(t, "channel")
			curr[(y*w+x)*3+c] ^= 0x5A
		}
		for y := range h {
			for x := range w {
				i := (y*w + x) * 3
				if !bytes.Equal(prev[i:i+3], curr[i:i+3]) {
					changed[[2]int{x, y}] = true
				}
			}
		}

		box := FindBoundingBox(prev, curr, w, h)
		if len(changed) == 0 {
			if !box.Empty() {
				t.Fatalf("unchanged frame produced box %+v", box)
			}
			return
		}

		// containment
		for p := range changed {
			if !box.Contains(p[0], p[1]) {
				t.Fatalf("changed pixel %v outside box %+v", p, box)
			}
		}

		// tightness: every edge touches a changed pixel
		var left, right, top, bottom bool
		for p := range changed {
			left = left || p[0] == box.XS
			right = right || p[0] == box.XE
			top = top || p[1] == box.YS
			bottom = bottom || p[1] == box.YE
		}
		if !left || !right || !top || !bottom {
			t.Fatalf("box %+v is not minimal", box)
		}
	})
}

func TestSendFrame_CachesAfterFirstSend(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, testGeometry(8, 8, 24, ProtoMercury))
	pix := uniformFrame(8, 8, 5, 5, 5)

	require.NoError(t, dev.SendFrame(pix))
	require.Len(t, frame.Streams, 1)
	window, _ := decodeStream(t, frame.Streams[0])
	assert.Equal(t, []byte{0x10, 0, 0, 0, 7, 0, 7}, window[:7])

	// unchanged frame sends nothing
	require.NoError(t, dev.SendFrame(pix))
	assert.Len(t, frame.Streams, 1)

	// one pixel changes, only it is sent
	next := bytes.Clone(pix)
	i := (3*8 + 6) * 3
	next[i] = 200
	require.NoError(t, dev.SendFrame(next))
	require.Len(t, frame.Streams, 2)
	window, data := decodeStream(t, frame.Streams[1])
	assert.Equal(t, []byte{0x10, 0, 6, 0, 6, 3, 3}, window[:7])
	assert.Equal(t, []byte{200, 5, 5}, data)

	// the cache holds the new frame
	require.NoError(t, dev.SendFrame(next))
	assert.Len(t, frame.Streams, 2)
}

func TestSendFrame_FailureKeepsCache(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, testGeometry(8, 8, 24, ProtoMercury))
	pix := uniformFrame(8, 8, 0, 0, 0)
	require.NoError(t, dev.SendFrame(pix))

	next := bytes.Clone(pix)
	next[0] = 1
	frame.FailWrite(PosWriteData, 0)
	err := dev.SendFrame(next)
	require.ErrorIs(t, err, ErrIO)

	// the failed region is retried on the next call
	require.NoError(t, dev.SendFrame(next))
	require.Len(t, frame.Streams, 2)
	window, _ := decodeStream(t, frame.Streams[1])
	assert.Equal(t, []byte{0x10, 0, 0, 0, 0, 0, 0}, window[:7])
}

func TestSendFrame_FirstSendFailure(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, testGeometry(4, 4, 24, ProtoMercury))
	frame.FailWrite(PosWriteData, 0)
	pix := uniformFrame(4, 4, 9, 9, 9)

	require.ErrorIs(t, dev.SendFrame(pix), ErrIO)
	require.NoError(t, dev.SendFrame(pix))
	window, _ := decodeStream(t, frame.Streams[0])
	assert.Equal(t, []byte{0x10, 0, 0, 0, 3, 0, 3}, window[:7], "full frame expected after failed first send")
}

func TestResetCache(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, testGeometry(4, 4, 24, ProtoMercury))
	pix := uniformFrame(4, 4, 9, 9, 9)
	require.NoError(t, dev.SendFrame(pix))
	dev.ResetCache()
	require.NoError(t, dev.SendFrame(pix))
	assert.Len(t, frame.Streams, 2)
}

func TestSendRGBA(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, testGeometry(2, 1, 24, ProtoMercury))
	bgra := []byte{1, 2, 3, 0xFF, 4, 5, 6, 0xFF}

	require.NoError(t, dev.SendRGBA(bgra))
	_, data := decodeStream(t, frame.Streams[0])
	assert.Equal(t, []byte{3, 2, 1, 6, 5, 4}, data)

	err := dev.SendRGBA(bgra[:4])
	assert.ErrorIs(t, err, ErrSizeConstraint)
}

func TestSendRGBAPartial(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, testGeometry(2, 2, 24, ProtoMercury))
	bgra := make([]byte, 2*2*4)
	bgra[3*4] = 9

	require.NoError(t, dev.SendRGBAPartial(bgra, BoundingBox{XS: 1, YS: 1, XE: 1, YE: 1}))
	window, data := decodeStream(t, frame.Streams[0])
	assert.Equal(t, []byte{0x10, 0, 1, 0, 1, 1, 1}, window[:7])
	assert.Equal(t, []byte{0, 0, 9}, data)

	require.NoError(t, dev.SendRGBAPartial(bgra, BoundingBox{XS: 1, XE: 0}))
	assert.Len(t, frame.Streams, 1)
}

func TestSendImage(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, testGeometry(3, 2, 24, ProtoMercury))
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 0xFF})
	img.Set(1, 0, color.RGBA{R: 40, G: 50, B: 60, A: 0xFF})

	require.NoError(t, dev.SendImage(img))
	_, data := decodeStream(t, frame.Streams[0])
	want := []byte{
		10, 20, 30, 40, 50, 60, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	assert.Equal(t, want, data)
}
