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
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/st2205tools/st2205-core/pkg/testing/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySize(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, DefaultGeometry)
	frame.MemBlocks = 16

	kb, err := dev.MemorySize()
	require.NoError(t, err)
	assert.Equal(t, 4096, kb)
	assert.Equal(t, []sim.Command{{Op: byte(CmdGetMemSize)}}, frame.Commands)
}

func TestFlashSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, FlashSize(0))
	assert.Equal(t, 1024, FlashSize(1000))
	assert.Equal(t, 4096, FlashSize(4096))
	assert.Equal(t, 8192, FlashSize(4097))
}

func TestPictureInfo(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, DefaultGeometry)
	frame.PicInfo = [5]byte{0x00, 0x80, 0x00, 0x80, 0x80 + 16}

	info, err := dev.PictureInfo()
	require.NoError(t, err)
	assert.Equal(t, PictureInfo{Width: 128, Height: 128, BPP: 16}, info)
	assert.Equal(t, "Xres: 128, Yres: 128, bpp: 16", info.String())
}

func TestVersionAndFormat(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, DefaultGeometry)
	frame.Version = [3]byte{0x01, 0x02, 0x03}
	frame.PicFormat = [2]byte{0xAB, 0xCD}

	ver, err := dev.FirmwareVersion()
	require.NoError(t, err)
	assert.Equal(t, [3]byte{1, 2, 3}, ver)

	pf, err := dev.PictureFormat()
	require.NoError(t, err)
	assert.Equal(t, [2]byte{0xAB, 0xCD}, pf)

	// the version opcode shares its value with the hack marker
	assert.Empty(t, frame.Hacks)
}

func TestSetClock(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC))
	dev, frame := openSim(t, DefaultGeometry)

	require.NoError(t, dev.SetClock(clock.Now()))
	require.Len(t, frame.Commands, 1)
	cmd := frame.Commands[0]
	assert.Equal(t, byte(CmdSetClock), cmd.Op)
	assert.Equal(t, uint32(2026)<<16|3<<8|14, cmd.Arg1)
	assert.Equal(t, uint32(15)<<24|9<<16, cmd.Arg2)
	assert.Equal(t, sim.Clock{Year: 2026, Month: 3, Day: 14, Hour: 15, Minute: 9}, frame.Clock)
}

func TestSendMessage(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, DefaultGeometry)
	require.NoError(t, dev.SendMessage("HELLO WORLD"))
	require.NoError(t, dev.SendMessage("HI"))

	assert.Equal(t, []string{"HELLO WOR", "HI"}, frame.Messages)
	assert.Empty(t, frame.Streams)
}

func TestQuery_ShortRead(t *testing.T) {
	t.Parallel()

	dev, frame := openSim(t, DefaultGeometry)
	frame.FailWrite(PosCommand, 0)

	_, err := dev.MemorySize()
	require.ErrorIs(t, err, ErrIO)
}
