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
	"github.com/st2205tools/st2205-core/pkg/helpers/syncutil"
)

// RawDevice is the seekable byte store behind the frame's pseudo disk. An
// *os.File opened on the block device satisfies it.
type RawDevice interface {
	io.ReadWriteSeeker
	io.Closer
}

// Channel maps the command, write-data and read-data windows of a raw
// device onto typed operations. Every call is a complete round trip; the
// mutex only stops two callers from interleaving seeks on one handle.
type Channel struct {
	rw  RawDevice
	cmd []byte
	mu  syncutil.Mutex
}

// NewChannel wraps rw. cmd is the sector-sized buffer used for command
// blocks; it must satisfy the alignment rules of rw (see AllocAligned).
func NewChannel(rw RawDevice, cmd []byte) *Channel {
	return &Channel{rw: rw, cmd: cmd[:SectorSize]}
}

func (c *Channel) seek(pos int64) error {
	got, err := c.rw.Seek(pos, io.SeekStart)
	if err != nil {
		return ioErrorf("seek to 0x%x: %v", pos, err)
	}
	if got != pos {
		return ioErrorf("seek to 0x%x landed at 0x%x", pos, got)
	}
	return nil
}

func (c *Channel) writeAt(pos int64, buf []byte, op string) error {
	if err := c.seek(pos); err != nil {
		return err
	}
	n, err := c.rw.Write(buf)
	if err != nil || n != len(buf) {
		return shortIO(op, len(buf), n, err)
	}
	return nil
}

func (c *Channel) readAt(pos int64, buf []byte, op string) error {
	if err := c.seek(pos); err != nil {
		return err
	}
	n, err := io.ReadFull(c.rw, buf)
	if err != nil {
		return shortIO(op, len(buf), n, err)
	}
	return nil
}

// SendCommand writes one command block: opcode, two big endian 32 bit
// arguments and one byte argument, zero padded to a sector.
func (c *Channel) SendCommand(op Opcode, arg1, arg2 uint32, arg3 byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.cmd)
	c.cmd[0] = byte(op)
	binary.BigEndian.PutUint32(c.cmd[1:5], arg1)
	binary.BigEndian.PutUint32(c.cmd[5:9], arg2)
	c.cmd[9] = arg3

	log.Debug().
		Uint8("op", uint8(op)).
		Uint32("arg1", arg1).
		Uint32("arg2", arg2).
		Uint8("arg3", arg3).
		Msg("st2205: command")

	return c.writeAt(PosCommand, c.cmd, "command")
}

// ReadData fills buf from the read-data window.
func (c *Channel) ReadData(buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readAt(PosReadData, buf, "read data")
}

// WriteData sends buf to the write-data window.
func (c *Channel) WriteData(buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeAt(PosWriteData, buf, "write data")
}

// ReadSector reads the first sector of the disk, which holds the vendor
// signature.
func (c *Channel) ReadSector(buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readAt(0, buf[:SectorSize], "read signature")
}

// HackFrame writes a tagged frame to the command window. Firmware patched
// with the hack hooks copies the last USB packet of the sector into its
// bulk buffer and dispatches on the tag.
func (c *Channel) HackFrame(tag string, payload []byte) error {
	if len(tag) != 4 {
		return fmt.Errorf("%w: hack frame tag %q must be 4 bytes", ErrSizeConstraint, tag)
	}
	if len(payload) > USBPacket {
		return fmt.Errorf("%w: hack frame payload of %d bytes exceeds %d",
			ErrSizeConstraint, len(payload), USBPacket)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.cmd)
	c.cmd[0] = hackMarker
	copy(c.cmd[1:5], tag)
	copy(c.cmd[SectorSize-USBPacket:], payload)

	log.Debug().Str("tag", tag).Int("len", len(payload)).Msg("st2205: hack frame")

	return c.writeAt(PosCommand, c.cmd, "hack frame")
}

// Close releases the raw device.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.rw.Close(); err != nil {
		return ioErrorf("close: %v", err)
	}
	return nil
}
