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
	"time"
)

// PictureInfo is the panel description reported by the stock firmware.
type PictureInfo struct {
	Width  int
	Height int
	BPP    int
}

func (p PictureInfo) String() string {
	return fmt.Sprintf("Xres: %d, Yres: %d, bpp: %d", p.Width, p.Height, p.BPP)
}

// query sends a command without arguments and reads its one sector reply.
func (d *Device) query(op Opcode) ([]byte, error) {
	if err := d.ch.SendCommand(op, 0, 0, 0); err != nil {
		return nil, err
	}
	reply := d.sector()
	if err := d.ch.ReadData(reply); err != nil {
		return nil, fmt.Errorf("read reply to command %d: %w", op, err)
	}
	return reply, nil
}

// MemorySize returns the memory size reported by the frame in KiB.
func (d *Device) MemorySize() (int, error) {
	reply, err := d.query(CmdGetMemSize)
	if err != nil {
		return 0, err
	}
	return int(reply[0]) * 128 * 1024 / 512, nil
}

// FlashSize rounds the reported memory size up to a power of two, which is
// the flash size in KiB. Each flash page is 32 KiB.
func FlashSize(memKiB int) int {
	size := 1
	for size < memKiB {
		size <<= 1
	}
	return size
}

// PictureInfo asks the firmware for the panel resolution.
func (d *Device) PictureInfo() (PictureInfo, error) {
	reply, err := d.query(CmdGetPicInfo)
	if err != nil {
		return PictureInfo{}, err
	}
	return PictureInfo{
		Width:  int(binary.BigEndian.Uint16(reply[0:2])),
		Height: int(binary.BigEndian.Uint16(reply[2:4])),
		BPP:    int(reply[4]) - 0x80,
	}, nil
}

// PictureFormat returns the two picture format bytes.
func (d *Device) PictureFormat() ([2]byte, error) {
	reply, err := d.query(CmdGetPicFormat)
	if err != nil {
		return [2]byte{}, err
	}
	return [2]byte{reply[0], reply[1]}, nil
}

// FirmwareVersion returns the three version bytes.
func (d *Device) FirmwareVersion() ([3]byte, error) {
	reply, err := d.query(CmdGetVersion)
	if err != nil {
		return [3]byte{}, err
	}
	return [3]byte{reply[0], reply[1], reply[2]}, nil
}

// SetClock sets the frame's real time clock to t, to the minute.
func (d *Device) SetClock(t time.Time) error {
	arg1 := uint32(t.Year()&0xFFFF)<<16 | uint32(t.Month())<<8 | uint32(t.Day())
	arg2 := uint32(t.Hour())<<24 | uint32(t.Minute())<<16
	return d.ch.SendCommand(CmdSetClock, arg1, arg2, 0)
}

// SendMessage shows a short message on the frame. Only the first
// MessageLen bytes of s are sent.
func (d *Device) SendMessage(s string) error {
	if err := d.ch.SendCommand(CmdMessage, 0, 0, 0); err != nil {
		return err
	}
	buf := d.sector()
	clear(buf)
	copy(buf[:MessageLen], s)
	if err := d.ch.WriteData(buf); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}
