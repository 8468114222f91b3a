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
	"io"

	"github.com/rs/zerolog/log"
)

// The uploader runs from the hack packet buffer at CodeAddr. It points the
// DMA engine at the code that follows it in the packet, copies it to free
// RAM and returns to the firmware's USB loop.
var uploaderStub = [...]byte{
	0x78,       // sei
	0xA9, 0x1F, // lda #<data
	0x85, 0x58, // sta DMSL
	0xA9, 0x02, // lda #>data
	0x85, 0x59, // sta DMSH
	0x64, 0x5E, // stz DMRL
	0x64, 0x5F, // stz DMRH
	0xA9, 0x80, // lda #<dest
	0x85, 0x5A, // sta DMDL
	0xA9, 0x05, // lda #>dest
	0x85, 0x5B, // sta DMDH
	0x64, 0x5D, // stz DCNTH
	0xA9, 0x20, // lda #count-1
	0x85, 0x5C, // sta DCNTL
	0x58,             // cli
	0x4C, 0x52, 0x7E, // jmp $7E52
}

const (
	stubDestLow  = 0x0E
	stubDestHigh = 0x12
	stubSizeLow  = 0x18

	// LongChunkSize is the code carried by each long upload packet.
	LongChunkSize = USBPacket - len(uploaderStub)

	// HackImageSize is the raw RGB image size HackImage accepts.
	HackImageSize = 320 * 240 * 3
)

// HackCode sends up to one packet of 6502 code to patched firmware, which
// runs it at CodeAddr straight away.
func (d *Device) HackCode(code []byte) error {
	if len(code) == 0 || len(code) > USBPacket {
		return fmt.Errorf("%w: direct code upload takes 1 to %d bytes, got %d",
			ErrSizeConstraint, USBPacket, len(code))
	}
	return d.ch.HackFrame(hackTagCode, code)
}

// HackText shows text through patched firmware. The message is cut to one
// packet and padded with spaces.
func (d *Device) HackText(msg string) error {
	var buf [USBPacket]byte
	n := copy(buf[:], msg)
	for i := n; i < len(buf); i++ {
		buf[i] = ' '
	}
	return d.ch.HackFrame(hackTagText, buf[:])
}

// HackCodeLong uploads up to FreeRAMSize bytes of code to FreeRAMAddr in
// packet sized chunks, reads the RAM back to verify it and then jumps to
// it. A failed verification is not rolled back.
func (d *Device) HackCodeLong(code []byte) error {
	if len(code) == 0 || len(code) > FreeRAMSize {
		return fmt.Errorf("%w: long code upload takes 1 to %d bytes, got %d",
			ErrSizeConstraint, FreeRAMSize, len(code))
	}

	var pkt [USBPacket]byte
	copy(pkt[:], uploaderStub[:])

	chunks := (len(code) + LongChunkSize - 1) / LongChunkSize
	for i, offset := 0, 0; offset < len(code); i++ {
		remaining := len(code) - offset
		n := min(remaining, LongChunkSize)
		if remaining <= LongChunkSize {
			pkt[stubSizeLow] = byte(remaining - 1)
		}

		dest := FreeRAMAddr + offset
		pkt[stubDestLow] = byte(dest)
		pkt[stubDestHigh] = byte(dest >> 8)
		copy(pkt[len(uploaderStub):], code[offset:offset+n])

		log.Debug().Int("offset", offset).Int("len", n).Msg("st2205: uploading code chunk")
		if err := d.ch.HackFrame(hackTagCode, pkt[:]); err != nil {
			return fmt.Errorf("upload code at offset %d: %w", offset, err)
		}

		offset += n
		d.report(i+1, chunks)
	}

	ram, err := d.ReadRAM()
	if err != nil {
		return fmt.Errorf("read back code: %w", err)
	}
	if !bytes.Equal(ram[FreeRAMAddr:FreeRAMAddr+len(code)], code) {
		return fmt.Errorf("%w: code in RAM differs from upload", ErrVerification)
	}

	log.Debug().Msg("st2205: code verified, jumping to it")
	jmp := []byte{0x4C, byte(FreeRAMAddr & 0xFF), byte(FreeRAMAddr >> 8)}
	if err := d.ch.HackFrame(hackTagCode, jmp); err != nil {
		return fmt.Errorf("send jump: %w", err)
	}
	return nil
}

// HackImage streams a raw 320x240 RGB image to the LCD of a frame running
// patched firmware. The stream is flushed every page.
func (d *Device) HackImage(r io.Reader, size int64) error {
	if size != HackImageSize {
		return fmt.Errorf("%w: raw image is %d bytes, expected %d",
			ErrSizeConstraint, size, HackImageSize)
	}

	buf := d.scratch[:PageSize]
	clear(buf[:runBlock])
	copy(buf, []byte{StreamSetWindow, 0, 0, 320 >> 8, 320 & 0xFF, 0, 240})

	idx := runBlock
	for remaining := int(size); remaining > 0; {
		n := min(remaining, runMax)
		buf[idx] = byte(runHeader + n - 1)
		if _, err := io.ReadFull(r, buf[idx+1:idx+1+n]); err != nil {
			return fmt.Errorf("%w: read raw image: %w", ErrIO, err)
		}
		clear(buf[idx+1+n : idx+runBlock])
		idx += runBlock
		remaining -= n

		if idx == PageSize {
			if err := d.ch.WriteData(buf); err != nil {
				return fmt.Errorf("write image data: %w", err)
			}
			idx = 0
		}
	}

	for idx%SectorSize != 0 {
		clear(buf[idx : idx+runBlock])
		idx += runBlock
	}
	if idx == 0 {
		return nil
	}
	return d.ch.WriteData(buf[:idx])
}
