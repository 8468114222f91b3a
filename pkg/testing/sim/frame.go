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

// Package sim emulates the pseudo disk of an ST2205U photo frame in memory,
// close enough to the real firmware to drive the st2205 package in tests.
package sim

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/st2205tools/st2205-core/pkg/helpers/syncutil"
)

// Wire layout of the frame.
const (
	PosCommand   = 0x6200
	PosWriteData = 0x6600
	PosReadData  = 0xB000

	SectorSize = 0x200
	PageSize   = 0x8000
	RAMSize    = 0x880
	USBPacket  = 64

	// StagingPage is where staged firmware blocks land; the firmware
	// checksum command addresses them at block+6.
	StagingPage = 8
)

// Signature is the vendor string stock firmware reports at offset 0.
const Signature = "SITRONIX CORP.\x00"

var stubPrefix = []byte{0x78, 0xA9, 0x1F, 0x85, 0x58, 0xA9, 0x02, 0x85, 0x59}

// ErrClosed is returned by any access after Close.
var ErrClosed = errors.New("sim: frame closed")

// Command is a decoded command block.
type Command struct {
	Op   byte
	Arg1 uint32
	Arg2 uint32
	Arg3 byte
}

// Hack is a decoded hack frame.
type Hack struct {
	Tag     string
	Payload []byte
}

// Clock is the last value set with the set-clock command.
type Clock struct {
	Year, Month, Day, Hour, Minute int
}

type replyKind int

const (
	replyNone replyKind = iota
	replySector
	replyPage
)

// Frame is an in-memory frame. It implements io.ReadWriteSeeker and
// io.Closer and is safe for use by one goroutine at a time; the mutex
// guards the recorded state for assertions from other goroutines.
type Frame struct {
	Pages    map[int][]byte
	Sector0  []byte
	RAM      []byte
	Commands []Command
	Hacks    []Hack
	Streams  [][]byte
	Messages []string
	Clock    Clock

	// replies to the info commands
	MemBlocks byte
	PicInfo   [5]byte
	Version   [3]byte
	PicFormat [2]byte

	reply      []byte
	mu         syncutil.Mutex
	faults     map[int64]int
	pos        int64
	pending    int
	kind       replyKind
	corrupt    int
	closed     bool
	message    bool
	wrapNext   bool
	writePage  bool
	seekSkew   int64
	dmaEnabled bool
}

// New returns a frame with the stock signature, blank flash and DMA
// emulation for long code uploads enabled.
func New() *Frame {
	f := &Frame{
		Pages:      make(map[int][]byte),
		Sector0:    make([]byte, SectorSize),
		RAM:        make([]byte, RAMSize),
		faults:     make(map[int64]int),
		MemBlocks:  16,
		PicInfo:    [5]byte{0x01, 0x40, 0x00, 0xF0, 0x80 + 24},
		Version:    [3]byte{1, 0, 2},
		PicFormat:  [2]byte{0x00, 0x01},
		dmaEnabled: true,
		pending:    -1,
	}
	copy(f.Sector0, Signature)
	return f
}

// SetSignature replaces the content of the first sector.
func (f *Frame) SetSignature(sig []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.Sector0)
	copy(f.Sector0, sig)
}

// SetPage stores data as the content of a flash page.
func (f *Frame) SetPage(page int, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, PageSize)
	copy(buf, data)
	f.Pages[page] = buf
}

// Page returns a copy of a flash page; unwritten pages read as 0xFF.
func (f *Frame) Page(page int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return bytes.Clone(f.page(page))
}

func (f *Frame) page(page int) []byte {
	if p, ok := f.Pages[page]; ok {
		return p
	}
	return bytes.Repeat([]byte{0xFF}, PageSize)
}

// CorruptNextPageWrite flips one byte of the next flash page written.
func (f *Frame) CorruptNextPageWrite(offset int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.corrupt = offset + 1
}

// FailWrite makes the write to window pos fail with a short count after
// the given number of further successful writes to it.
func (f *Frame) FailWrite(pos int64, after int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[pos] = after + 1
}

// SkewSeek makes every seek land delta bytes away from the requested
// position.
func (f *Frame) SkewSeek(delta int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seekSkew = delta
}

// DisableDMA stops the emulated uploader stub from copying code to RAM.
func (f *Frame) DisableDMA() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dmaEnabled = false
}

// Reset forgets every recorded command, hack frame and stream.
func (f *Frame) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commands = nil
	f.Hacks = nil
	f.Streams = nil
	f.Messages = nil
}

// Touched reports whether anything other than a read of the first sector
// reached the frame.
func (f *Frame) Touched() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Commands) > 0 || len(f.Hacks) > 0 || len(f.Streams) > 0
}

// Closed reports whether Close was called.
func (f *Frame) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Seek implements io.Seeker. Only io.SeekStart is supported.
func (f *Frame) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, ErrClosed
	}
	if whence != io.SeekStart {
		return 0, fmt.Errorf("sim: unsupported whence %d", whence)
	}
	f.pos = offset + f.seekSkew
	return f.pos, nil
}

// Read implements io.Reader.
func (f *Frame) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, ErrClosed
	}

	switch f.pos {
	case 0:
		clear(p)
		copy(p, f.Sector0)
	case PosReadData:
		f.readData(p)
	default:
		clear(p)
	}
	f.pos += int64(len(p))
	return len(p), nil
}

func (f *Frame) readData(p []byte) {
	clear(p)
	switch {
	case f.kind != replyNone:
		copy(p, f.reply)
		f.wrapNext = f.kind == replyPage
		f.kind = replyNone
		f.reply = nil
	case f.wrapNext:
		// the read pointer runs past the page buffer into RAM
		copy(p, f.RAM)
		f.wrapNext = false
	}
}

// Write implements io.Writer.
func (f *Frame) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, ErrClosed
	}

	if left, ok := f.faults[f.pos]; ok {
		left--
		if left == 0 {
			delete(f.faults, f.pos)
			return len(p) / 2, nil
		}
		f.faults[f.pos] = left
	}

	switch f.pos {
	case PosCommand:
		f.command(p)
	case PosWriteData:
		f.writeData(p)
	}
	f.pos += int64(len(p))
	return len(p), nil
}

// Close implements io.Closer.
func (f *Frame) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.closed = true
	return nil
}

func (f *Frame) sectorReply(data []byte) {
	f.reply = make([]byte, SectorSize)
	copy(f.reply, data)
	f.kind = replySector
}

func (f *Frame) command(p []byte) {
	if len(p) < SectorSize {
		return
	}
	f.wrapNext = false

	// hack frames share their marker with the version command and are told
	// apart by the tag
	if p[0] == 8 && p[1] != 0 {
		f.hack(string(p[1:5]), bytes.Clone(p[SectorSize-USBPacket:SectorSize]))
		return
	}

	c := Command{
		Op:   p[0],
		Arg1: binary.BigEndian.Uint32(p[1:5]),
		Arg2: binary.BigEndian.Uint32(p[5:9]),
		Arg3: p[9],
	}
	f.Commands = append(f.Commands, c)

	switch c.Op {
	case 1:
		f.sectorReply([]byte{f.MemBlocks})
	case 2:
		page := int((c.Arg1 + 2) & 0xFFFF)
		var sum uint32
		for _, b := range f.page(page) {
			sum += uint32(b)
		}
		var reply [4]byte
		binary.BigEndian.PutUint32(reply[:], sum)
		f.sectorReply(reply[:])
	case 3:
		if c.Arg1&0x80000000 != 0 {
			f.pending = StagingPage + int(c.Arg1&0xFF)
		} else {
			f.pending = PageFromAddress(c.Arg1)
		}
		f.writePage = true
	case 4:
		f.reply = bytes.Clone(f.page(PageFromAddress(c.Arg1)))
		f.kind = replyPage
	case 5:
		f.sectorReply(f.PicInfo[:])
	case 6:
		f.Clock = Clock{
			Year:   int(c.Arg1 >> 16),
			Month:  int(c.Arg1 >> 8 & 0xFF),
			Day:    int(c.Arg1 & 0xFF),
			Hour:   int(c.Arg2 >> 24),
			Minute: int(c.Arg2 >> 16 & 0xFF),
		}
	case 7:
		f.sectorReply(f.PicFormat[:])
	case 8:
		f.sectorReply(f.Version[:])
	case 9:
		f.message = true
	}
}

func (f *Frame) hack(tag string, payload []byte) {
	f.Hacks = append(f.Hacks, Hack{Tag: tag, Payload: payload})
	if tag != "HACK" || !f.dmaEnabled || !bytes.HasPrefix(payload, stubPrefix) {
		return
	}
	dest := int(payload[0x0E]) | int(payload[0x12])<<8
	count := int(payload[0x18]) + 1
	src := payload[31:]
	count = min(count, len(src))
	if dest >= len(f.RAM) {
		return
	}
	copy(f.RAM[dest:], src[:count])
}

func (f *Frame) writeData(p []byte) {
	switch {
	case f.writePage:
		buf := make([]byte, PageSize)
		copy(buf, p)
		if f.corrupt > 0 {
			buf[(f.corrupt-1)%PageSize] ^= 0xFF
			f.corrupt = 0
		}
		f.Pages[f.pending] = buf
		f.writePage = false
		f.pending = -1
	case f.message:
		msg := p[:min(len(p), 9)]
		if i := bytes.IndexByte(msg, 0); i >= 0 {
			msg = msg[:i]
		}
		f.Messages = append(f.Messages, string(msg))
		f.message = false
	default:
		f.Streams = append(f.Streams, bytes.Clone(p))
	}
}

// PageFromAddress undoes the low byte adjustment the host applies to page
// numbers in read and write commands.
func PageFromAddress(arg uint32) int {
	return int(arg&0xFF00 | (arg&0xFF+2)&0xFF)
}

// Jumps returns the targets of jmp instructions sent as HACK frames.
func (f *Frame) Jumps() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for _, h := range f.Hacks {
		if h.Tag == "HACK" && h.Payload[0] == 0x4C {
			out = append(out, int(h.Payload[1])|int(h.Payload[2])<<8)
		}
	}
	return out
}
